package store

import (
	"github.com/jackc/pgx/v5"

	"github.com/anzclass/anzclass/internal/models"
)

// collectRanked drains a single-column code result set, assigning 1-based
// ranks in row order.
func collectRanked(rows pgx.Rows) ([]models.RankedCode, error) {
	var out []models.RankedCode

	rank := 0
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, models.DatabaseError(err, "scanning ranked code")
		}

		rank++
		out = append(out, models.RankedCode{Code: code, Rank: rank})
	}

	if err := rows.Err(); err != nil {
		return nil, models.DatabaseError(err, "iterating ranked codes")
	}

	return out, nil
}
