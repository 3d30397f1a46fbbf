package ingest

import (
	"sample-monitor/models"
	"sample-monitor/utils"
)

// Normalize parses every row's raw index into a timestamp. One unparsable
// row fails the whole dataset. Row order is kept.
func Normalize(ds *models.Dataset, layouts []string) (*models.Dataset, error) {
	rows := ds.Rows()
	for i := range rows {
		t, err := utils.ParseTimestamp(rows[i].Raw, layouts)
		if err != nil {
			return nil, &models.TimestampParseError{
				Row:    i,
				Source: rows[i].Source,
				Line:   rows[i].Line,
				Value:  rows[i].Raw,
				Err:    err,
			}
		}
		rows[i].Time = t
	}
	return ds.WithRows(rows)
}
