package pvt

import (
	"gopvt/domain/frame"
)

// Columns names the measurement table's columns. The zero value is not
// usable; start from DefaultColumns.
type Columns struct {
	User     string
	Session  string
	Response string
}

// DefaultColumns returns the conventional PVT column names.
func DefaultColumns() Columns {
	return Columns{
		User:     "user_id",
		Session:  "session",
		Response: "response_time",
	}
}

// ScorePerSession reduces raw per-trial measurements into one score per
// (user, session) pair: rows are grouped by user, then by session within
// each user, and each group's response values collapse to the chosen
// statistic. Exactly one output row is produced per observed pair. Output
// order is deterministic (sorted group keys) but not part of the contract.
func ScorePerSession(t *frame.Table, scoring Statistic, cols Columns) (*frame.Table, error) {
	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	out := frame.New(cols.User, cols.Session, cols.Response)
	users, err := t.GroupBy(cols.User)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		sessions, err := user.Rows.GroupBy(cols.Session)
		if err != nil {
			return nil, err
		}
		for _, session := range sessions {
			values, err := session.Rows.Floats(cols.Response)
			if err != nil {
				return nil, err
			}
			score, err := scoring.Apply(values)
			if err != nil {
				return nil, err
			}
			if err := out.AppendRow(user.Key, session.Key, score); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
