package sqlcgen

import "time"

type ColumnSetting struct {
	Setting   string
	Visible   bool
	UpdatedAt time.Time
}
