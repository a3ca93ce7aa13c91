package models

// ExpenseGroup is one of the two fixed buckets manual expenses are reported in.
type ExpenseGroup string

const (
	ExpenseOperational ExpenseGroup = "operational"
	ExpenseOther       ExpenseGroup = "other"
)

var operationalCategories = []string{
	"Gaji Mekanik",
	"Listrik",
	"Air",
	"Internet",
	"Sewa Tempat",
	"Biaya Operasional Lainnya",
}

var otherCategories = []string{
	"Pembelian Peralatan",
	"Perawatan Peralatan",
	"Transportasi",
	"Pemasaran",
	"Pajak & Perizinan",
	"Lain-lain",
}

// ExpenseCategories returns the allowed labels of a group in display order.
// The returned slice is a copy.
func ExpenseCategories(group ExpenseGroup) []string {
	var src []string
	switch group {
	case ExpenseOperational:
		src = operationalCategories
	case ExpenseOther:
		src = otherCategories
	}
	return append([]string(nil), src...)
}

// ExpenseGroupOf reports the group a category belongs to.
func ExpenseGroupOf(category string) (ExpenseGroup, bool) {
	for _, c := range operationalCategories {
		if c == category {
			return ExpenseOperational, true
		}
	}
	for _, c := range otherCategories {
		if c == category {
			return ExpenseOther, true
		}
	}
	return ExpenseOther, false
}

func IsValidExpenseCategory(category string) bool {
	_, ok := ExpenseGroupOf(category)
	return ok
}
