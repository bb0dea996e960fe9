package repository

import (
	"fmt"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/models"
)

// orderBy renders a whitelisted ORDER BY clause. Unknown sort keys fall back
// to created_at so user input never reaches the SQL text.
func orderBy(p models.ListParams, columns map[string]string, alias string) string {
	col, ok := columns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}
	if alias != "" {
		col = alias + "." + col
	}
	return fmt.Sprintf("ORDER BY %s %s, %s ASC", col, dir, qualify(alias, "id"))
}

func qualify(alias, col string) string {
	if alias == "" {
		return col
	}
	return alias + "." + col
}

// searchPattern builds an ILIKE pattern, escaping wildcards in the term.
func searchPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// args collects positional parameters while building dynamic SQL.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}
