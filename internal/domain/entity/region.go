package entity

// Region territorio comercial plano (sin jerarquía).
type Region struct {
	ID   int64
	Name string
}
