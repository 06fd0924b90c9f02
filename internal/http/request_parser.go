package http

// This file implements utilities for parsing and validating request data.
// Bodies may be JSON objects or form-encoded; handlers read fields by name.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookkeeper/internal/core"
)

// MaxRequestBody bounds ordinary request bodies. Receipt images travel
// inline as data URLs.
const MaxRequestBody = 8 << 20

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to MaxRequestBody bytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, MaxRequestBody+1))
	if p.err == nil && len(p.body) > MaxRequestBody {
		p.err = fmt.Errorf("request body exceeds %d bytes", MaxRequestBody)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		// Keep amounts exact
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(p.GetRaw(key)))
}

// GetRaw returns a value without sanitizing, for opaque payloads such as
// receipt images.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Has reports whether the field was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewTransaction reads the fields of an add-transaction command.
// Malformed type or amount values come back as *core.ValidationError, like
// the rest of the validation.
func ParseNewTransaction(p *RequestBodyParser) (core.NewTransaction, error) {
	in := core.NewTransaction{
		CategoryID:    p.Get("categoryId"),
		SubCategoryID: p.Get("subCategoryId"),
		AccountID:     p.Get("accountId"),
		Description:   p.Get("description"),
		Date:          core.Date(p.Get("date")),
		ReceiptImage:  strings.TrimSpace(p.GetRaw("receiptImage")),
	}

	typ, err := core.ParseTxType(p.Get("type"))
	if err != nil {
		return in, &core.ValidationError{Field: "type", Err: err}
	}
	in.Type = typ

	amount, err := core.ParseMoney(p.Get("amount"))
	if err != nil {
		return in, &core.ValidationError{Field: "amount", Err: err}
	}
	in.Amount = amount

	return in, nil
}

// ErrInvalidMonth is returned for a month filter not in YYYY-MM form.
var ErrInvalidMonth = errors.New("month must be YYYY-MM")

// ParseMonthFilter reads the optional ?month=YYYY-MM filter.
func ParseMonthFilter(query url.Values) (string, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01", v); err != nil {
		return "", ErrInvalidMonth
	}
	return v, nil
}

// ParseLimit reads an optional positive ?limit=N, returning 0 when absent.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}
