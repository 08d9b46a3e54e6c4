package stateart

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first letter of name and lower-cases the rest,
// so "cartItems" becomes "Cartitems".
func Capitalize(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}

// HookName is the conventional hook name for a store: "useCounterStore".
func HookName(name string) string {
	return "use" + Capitalize(name) + "Store"
}

// ProviderName is the conventional provider name for a store:
// "CounterStoreProvider".
func ProviderName(name string) string {
	return Capitalize(name) + "StoreProvider"
}

// StorageKey is the key a store's snapshot is persisted under: "counterStore".
func StorageKey(name string) string {
	return name + "Store"
}
