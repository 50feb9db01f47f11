package listing

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

func Paginate(q *gorm.DB, p Page) *gorm.DB {
	n := p.Normalize()
	return q.Offset(n.Offset()).Limit(n.Limit)
}

// Order applies "column asc|desc" when column is in allowed, falling back to def.
func Order(q *gorm.DB, column, order string, allowed map[string]string, def string) *gorm.DB {
	col, ok := allowed[strings.ToLower(strings.TrimSpace(column))]
	if !ok {
		return q.Order(def)
	}
	dir := "asc"
	if strings.EqualFold(strings.TrimSpace(order), "desc") {
		dir = "desc"
	}
	return q.Order(col + " " + dir)
}

// Like builds a case-insensitive containment pattern usable on postgres and sqlite.
func Like(search string) string {
	s := strings.ToLower(strings.TrimSpace(search))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}

// LikeExpr is the matching expression for Like patterns on column.
func LikeExpr(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}
