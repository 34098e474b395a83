// Package search собирает условие поиска автомобилей из фильтра пользователя.
//
// Каждый заполненный атрибут фильтра превращается в предикат "значение входит
// в множество", предикаты объединяются через AND. Условие "автомобиль не
// удалён" добавляется всегда и идёт первым.
package search

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// Attribute перечисляет атрибуты автомобиля, по которым возможен поиск.
type Attribute int

const (
	AttrBrand Attribute = iota + 1
	AttrModel
	AttrType
	AttrDailyFee
)

// Attributes задаёт порядок, в котором атрибуты попадают в условие.
var Attributes = []Attribute{AttrBrand, AttrModel, AttrType, AttrDailyFee}

// String возвращает ключ атрибута в запросе.
func (a Attribute) String() string {
	switch a {
	case AttrBrand:
		return "brand"
	case AttrModel:
		return "model"
	case AttrType:
		return "type"
	case AttrDailyFee:
		return "dailyFee"
	}
	return "attribute(" + strconv.Itoa(int(a)) + ")"
}

// Filter содержит необязательные ограничения поиска. Пустое поле ничего не ограничивает.
type Filter struct {
	Brands    []string
	Models    []string
	Types     []model.VehicleType
	DailyFees []model.Money
}

// Empty сообщает, что фильтр не содержит ни одного ограничения.
func (f Filter) Empty() bool {
	return len(f.Brands) == 0 && len(f.Models) == 0 && len(f.Types) == 0 && len(f.DailyFees) == 0
}

// Predicate проверяет автомобиль и умеет отрисовать себя в SQL.
type Predicate interface {
	Match(v model.Vehicle) bool
	writeSQL(b *sqlBuilder)
}

type notDeleted struct{}

func (notDeleted) Match(v model.Vehicle) bool { return !v.Deleted }
func (notDeleted) writeSQL(b *sqlBuilder)     { b.WriteString("NOT is_deleted") }

type brandIn []string

func (p brandIn) Match(v model.Vehicle) bool { return slices.Contains(p, v.Brand) }
func (p brandIn) writeSQL(b *sqlBuilder)     { b.anyOf("brand", []string(p)) }

type modelIn []string

func (p modelIn) Match(v model.Vehicle) bool { return slices.Contains(p, v.Model) }
func (p modelIn) writeSQL(b *sqlBuilder)     { b.anyOf("model", []string(p)) }

type typeIn []model.VehicleType

func (p typeIn) Match(v model.Vehicle) bool { return slices.Contains(p, v.Type) }
func (p typeIn) writeSQL(b *sqlBuilder) {
	values := make([]string, len(p))
	for i, t := range p {
		values[i] = string(t)
	}
	b.anyOf("vehicle_type", values)
}

type dailyFeeIn []model.Money

func (p dailyFeeIn) Match(v model.Vehicle) bool { return slices.Contains(p, v.DailyFee) }
func (p dailyFeeIn) writeSQL(b *sqlBuilder) {
	values := make([]int64, len(p))
	for i, fee := range p {
		values[i] = int64(fee)
	}
	b.anyOf("daily_fee", values)
}

type allOf []Predicate

func (p allOf) Match(v model.Vehicle) bool {
	for _, pred := range p {
		if !pred.Match(v) {
			return false
		}
	}
	return true
}

func (p allOf) writeSQL(b *sqlBuilder) {
	for i, pred := range p {
		if i > 0 {
			b.WriteString(" AND ")
		}
		pred.writeSQL(b)
	}
}

// Predicate возвращает предикат для атрибута или ok == false, если атрибут в фильтре не задан.
// Неизвестный атрибут означает ошибку в коде и возвращается как model.ErrConfiguration.
func (f Filter) Predicate(attr Attribute) (p Predicate, ok bool, err error) {
	switch attr {
	case AttrBrand:
		if len(f.Brands) == 0 {
			return nil, false, nil
		}
		return brandIn(f.Brands), true, nil
	case AttrModel:
		if len(f.Models) == 0 {
			return nil, false, nil
		}
		return modelIn(f.Models), true, nil
	case AttrType:
		if len(f.Types) == 0 {
			return nil, false, nil
		}
		return typeIn(f.Types), true, nil
	case AttrDailyFee:
		if len(f.DailyFees) == 0 {
			return nil, false, nil
		}
		return dailyFeeIn(f.DailyFees), true, nil
	}
	return nil, false, fmt.Errorf("%w: no predicate for search attribute %s", model.ErrConfiguration, attr)
}

// Query хранит итоговое условие поиска.
type Query struct {
	pred allOf
}

// Build объединяет предикаты всех заполненных атрибутов фильтра.
func Build(f Filter) (Query, error) {
	return buildFor(f, Attributes)
}

func buildFor(f Filter, attrs []Attribute) (Query, error) {
	preds := allOf{notDeleted{}}
	for _, attr := range attrs {
		p, ok, err := f.Predicate(attr)
		if err != nil {
			return Query{}, err
		}
		if ok {
			preds = append(preds, p)
		}
	}
	return Query{pred: preds}, nil
}

// Match проверяет автомобиль в памяти.
func (q Query) Match(v model.Vehicle) bool {
	if q.pred == nil {
		return notDeleted{}.Match(v)
	}
	return q.pred.Match(v)
}

// Where возвращает условие WHERE с плейсхолдерами $1..$n и их значения.
func (q Query) Where() (string, []any) {
	b := &sqlBuilder{}
	if q.pred == nil {
		notDeleted{}.writeSQL(b)
	} else {
		q.pred.writeSQL(b)
	}
	return b.String(), b.args
}

type sqlBuilder struct {
	strings.Builder
	args []any
}

func (b *sqlBuilder) anyOf(column string, values any) {
	b.args = append(b.args, values)
	b.WriteString(column + " = ANY($" + strconv.Itoa(len(b.args)) + ")")
}
