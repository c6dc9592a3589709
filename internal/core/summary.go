package core

// Summary aggregates totals by transaction kind. Both totals default to zero;
// a kind with no rows contributes 0, never an absent field.
type Summary struct {
	TotalEntradas Money
	TotalSaidas   Money
}

// Balanco is income minus expense, in cents.
func (s Summary) Balanco() Money {
	return Money{Cents: s.TotalEntradas.Cents - s.TotalSaidas.Cents}
}

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	Categoria string
	Total     Money
}
