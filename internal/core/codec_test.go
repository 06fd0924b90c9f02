package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDocumentRoundTripKeepsLayout(t *testing.T) {
	doc := SeedDocument()
	doc.Transactions = []Transaction{{
		ID: "t1", CategoryID: "cat-1", SubCategoryID: "sub-1", AccountID: "acc-1",
		Type: Credit, Amount: Money{Cents: 10000}, BalanceAfter: Money{Cents: 10000},
		Date: "2024-01-05",
	}}
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"categories"`, `"subCategories"`, `"accounts"`, `"transactions"`, `"settings"`, `"primaryColor"`, `"profile"`, `"passwordHash"`, `"balanceAfter":100`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("serialized document missing %s: %s", key, data)
		}
	}
	got, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Amount.Cents != 10000 || got.Profile.Username != "admin" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestEmptyCollectionsEncodeAsArrays(t *testing.T) {
	data, err := MarshalDocument(Document{Settings: Settings{Language: "en"}, Profile: Profile{Username: "u"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Fatalf("empty collections must encode as []: %s", data)
	}
	if _, err := UnmarshalDocument(data); err != nil {
		t.Fatalf("empty document must load: %v", err)
	}
}

func TestUnmarshalDocumentRejectsCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":             `{"categories": [`,
		"missing profile":      `{"categories":[],"subCategories":[],"accounts":[],"transactions":[],"settings":{}}`,
		"null transactions":    `{"categories":[],"subCategories":[],"accounts":[],"transactions":null,"settings":{},"profile":{}}`,
		"bad transaction type": `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"x","amount":1}],"settings":{},"profile":{}}`,
		"bad amount":           `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"له","amount":"abc"}],"settings":{},"profile":{}}`,
		"oversized amount":     `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"له","amount":1e17}],"settings":{},"profile":{}}`,
		"zero amount":          `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"له","amount":0}],"settings":{},"profile":{}}`,
		"negative amount":      `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"عليه","amount":-5}],"settings":{},"profile":{}}`,
		"fractional cents":     `{"categories":[],"subCategories":[],"accounts":[],"transactions":[{"id":"a","type":"له","amount":1.005}],"settings":{},"profile":{}}`,
		"array":                `[]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := UnmarshalDocument([]byte(in)); !errors.Is(err, ErrCorruptDocument) {
				t.Fatalf("expected ErrCorruptDocument, got %v", err)
			}
		})
	}
}
