package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Stats aggregates the journal for one operation kind
type Stats struct {
	Op            string
	TotalCalls    int
	SuccessCount  int
	ErrorCount    int // device answered with 4xx/5xx
	NetworkErrors int // no response at all (status 0)
	AvgDurationMs float64
	MinDurationMs int64
	MaxDurationMs int64
	StatusCodes   map[int]int
	LastCalled    time.Time
}

// StatsPerOp summarizes operations per op, most recently used first.
// An empty deviceName covers every device.
func (m *Manager) StatsPerOp(deviceName string) ([]Stats, error) {
	query := `
		WITH status_codes_agg AS (
			SELECT op, json_group_object(CAST(status AS TEXT), count) AS status_codes_json
			FROM (
				SELECT op, status, COUNT(*) AS count
				FROM operations
				WHERE device_name = ? OR ? = ''
				GROUP BY op, status
			)
			GROUP BY op
		)
		SELECT
			o.op,
			COUNT(*) AS total_calls,
			SUM(CASE WHEN o.status >= 200 AND o.status < 300 THEN 1 ELSE 0 END) AS success_count,
			SUM(CASE WHEN o.status >= 400 THEN 1 ELSE 0 END) AS error_count,
			SUM(CASE WHEN o.status = 0 THEN 1 ELSE 0 END) AS network_errors,
			AVG(o.duration_ms),
			MIN(o.duration_ms),
			MAX(o.duration_ms),
			MAX(o.timestamp) AS last_called,
			COALESCE(s.status_codes_json, '{}')
		FROM operations o
		LEFT JOIN status_codes_agg s ON o.op = s.op
		WHERE o.device_name = ? OR ? = ''
		GROUP BY o.op
		ORDER BY last_called DESC
	`

	rows, err := m.db.Query(query, deviceName, deviceName, deviceName, deviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		var lastCalled sql.NullString
		var codesJSON string

		if err := rows.Scan(&s.Op, &s.TotalCalls, &s.SuccessCount, &s.ErrorCount, &s.NetworkErrors,
			&s.AvgDurationMs, &s.MinDurationMs, &s.MaxDurationMs, &lastCalled, &codesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		if lastCalled.Valid {
			if t, err := time.ParseInLocation(timestampLayout, lastCalled.String, time.Local); err == nil {
				s.LastCalled = t
			}
		}

		var codes map[string]int
		if err := json.Unmarshal([]byte(codesJSON), &codes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status codes: %w", err)
		}
		s.StatusCodes = make(map[int]int, len(codes))
		for k, n := range codes {
			if code, err := strconv.Atoi(k); err == nil {
				s.StatusCodes[code] = n
			}
		}

		out = append(out, s)
	}
	return out, rows.Err()
}
