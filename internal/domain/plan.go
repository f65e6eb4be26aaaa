package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Interval é a unidade de cobrança de um plano.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// ErrUnknownInterval é devolvido quando o plano tem um intervalo fora de month/year.
var ErrUnknownInterval = errors.New("intervalo de cobrança desconhecido")

// Valid informa se o intervalo é um dos valores aceitos.
func (i Interval) Valid() bool {
	return i == IntervalMonth || i == IntervalYear
}

// Features é a lista ordenada de funcionalidades de um plano.
// No banco ela fica guardada como um array JSON.
type Features []string

// Value implementa driver.Valuer.
func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implementa sql.Scanner. Aceita TEXT (sqlite) e JSONB (postgres).
func (f *Features) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*f = Features{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("features: tipo não suportado %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*f = out
	return nil
}

// Plan é um plano que pode ser assinado. Depois de referenciado por uma
// assinatura, o plano não muda.
type Plan struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price" swaggertype:"number"`
	Currency    string          `json:"currency" db:"currency"`
	Interval    Interval        `json:"interval" db:"interval"`
	Features    Features        `json:"features" db:"features"`
	Active      bool            `json:"active" db:"active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// PlanSummary são os atributos do plano devolvidos junto com uma assinatura.
type PlanSummary struct {
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price" swaggertype:"number"`
	Interval Interval        `json:"interval" db:"interval"`
	Features Features        `json:"features" db:"features"`
}

// Summary reduz o plano aos atributos exibidos numa assinatura.
func (p Plan) Summary() PlanSummary {
	return PlanSummary{
		Name:     p.Name,
		Price:    p.Price,
		Interval: p.Interval,
		Features: p.Features,
	}
}
