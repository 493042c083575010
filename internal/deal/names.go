package deal

import (
	"fmt"
	"slices"

	"github.com/absbox/absc/internal/ir"
)

// Category is an entity namespace.
type Category string

const (
	Accounts  Category = "account"
	Bonds     Category = "bond"
	Fees      Category = "fee"
	Swaps     Category = "swap"
	Liquidity Category = "liquidity provider"
	Customs   Category = "custom formula"
)

// NameSet holds the declared entity names of one deal, enough for
// reference checking without the source description.
type NameSet struct {
	Accounts  map[string]struct{}
	Bonds     map[string]struct{}
	Fees      map[string]struct{}
	Swaps     map[string]struct{}
	Liquidity map[string]struct{}
	Custom    map[string]struct{}
	Assets    int
}

// NewNameSet returns an empty NameSet.
func NewNameSet() NameSet {
	return NameSet{
		Accounts:  map[string]struct{}{},
		Bonds:     map[string]struct{}{},
		Fees:      map[string]struct{}{},
		Swaps:     map[string]struct{}{},
		Liquidity: map[string]struct{}{},
		Custom:    map[string]struct{}{},
	}
}

func (ns NameSet) set(c Category) map[string]struct{} {
	switch c {
	case Accounts:
		return ns.Accounts
	case Bonds:
		return ns.Bonds
	case Fees:
		return ns.Fees
	case Swaps:
		return ns.Swaps
	case Liquidity:
		return ns.Liquidity
	case Customs:
		return ns.Custom
	}
	return nil
}

// Has reports whether name is declared in category c.
func (ns NameSet) Has(c Category, name string) bool {
	_, ok := ns.set(c)[name]
	return ok
}

// Sorted lists the names of category c.
func (ns NameSet) Sorted(c Category) []string {
	set := ns.set(c)
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// NamesOf recovers the name sets from a compiled deal document.
func NamesOf(doc ir.IRTagged) (NameSet, error) {
	body, ok := doc.Contents.(ir.IRObject)
	if !ok {
		return NameSet{}, fmt.Errorf("deal %s: contents is %T, want object", doc.Tag, doc.Contents)
	}
	ns := NewNameSet()
	for key, cat := range map[string]Category{
		"accounts":    Accounts,
		"bonds":       Bonds,
		"fees":        Fees,
		"rateSwap":    Swaps,
		"liqProvider": Liquidity,
		"custom":      Customs,
	} {
		m, ok := body[key].(ir.IRObject)
		if !ok {
			continue
		}
		set := ns.set(cat)
		for name := range m {
			set[name] = struct{}{}
		}
	}
	if pool, ok := body["pool"].(ir.IRObject); ok {
		if assets, ok := pool["assets"].(ir.IRArray); ok {
			ns.Assets = len(assets)
		}
	}
	return ns, nil
}

// DisplayName returns the name field of a compiled deal document, or ""
// when absent.
func DisplayName(doc ir.IRTagged) string {
	body, ok := doc.Contents.(ir.IRObject)
	if !ok {
		return ""
	}
	s, _ := body["name"].(ir.IRString)
	return string(s)
}
