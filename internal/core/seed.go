package core

// SeedDocument returns the default document used on first start and whenever
// the persisted document cannot be read.
func SeedDocument() Document {
	return Document{
		Categories: []Category{
			{ID: "cat-1", Name: "العمل"},
			{ID: "cat-2", Name: "المنزل"},
		},
		SubCategories: []SubCategory{
			{ID: "sub-1", CategoryID: "cat-1", Name: "المشاريع"},
			{ID: "sub-2", CategoryID: "cat-2", Name: "المصاريف"},
		},
		Accounts: []Account{
			{ID: "acc-1", SubCategoryID: "sub-1", Name: "مشروع أ"},
			{ID: "acc-2", SubCategoryID: "sub-2", Name: "البقالة"},
		},
		Transactions: []Transaction{},
		Settings: Settings{
			Currency:     "ريال",
			PrimaryColor: "#2563eb",
			Language:     "ar",
		},
		Profile: Profile{
			Username:     "admin",
			PasswordHash: "123",
		},
	}
}
