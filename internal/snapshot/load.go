package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
	"go.uber.org/zap"
)

// ErrMalformed is returned when a stored document cannot be read at all.
var ErrMalformed = errors.New("malformed snapshot")

// dateKeys name the fields that hold dates anywhere in a snapshot document.
var dateKeys = map[string]bool{
	"date":              true,
	"startDate":         true,
	"endDate":           true,
	"createdAt":         true,
	"balanceUpdatedAt":  true,
	"lowestBalanceDate": true,
	"anchorDate":        true,
}

// migration rewrites a document from one schema version to the next.
type migration func(doc map[string]any) []string

// migrations[v] upgrades a version v document to v+1.
var migrations = map[int]migration{
	0: migrateLegacy,
}

// Load parses a stored document. Dates stored as text, epoch milliseconds or
// {seconds, nanoseconds} objects are re-hydrated. Documents from an older
// schema are upgraded on a best-effort basis and documents from a newer one
// are read as far as the current shape allows; both cases return warnings
// rather than an error. The returned SchemaVersion is the stored one.
func Load(logger *zap.Logger, raw []byte) (model.ProjectionSnapshot, []string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var doc map[string]any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return model.ProjectionSnapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return model.ProjectionSnapshot{}, nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	version, err := schemaVersion(doc)
	if err != nil {
		return model.ProjectionSnapshot{}, nil, err
	}

	var warnings []string
	switch {
	case version < constants.SchemaVersion:
		warnings = append(warnings, fmt.Sprintf(
			"snapshot schema version %d is older than %d; loaded on a best-effort basis",
			version, constants.SchemaVersion))
		for v := version; v < constants.SchemaVersion; v++ {
			if migrate, ok := migrations[v]; ok {
				warnings = append(warnings, migrate(doc)...)
			}
		}
	case version > constants.SchemaVersion:
		warnings = append(warnings, fmt.Sprintf(
			"snapshot schema version %d is newer than %d; unknown fields were ignored",
			version, constants.SchemaVersion))
	}

	warnings = append(warnings, hydrate(doc, "")...)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return model.ProjectionSnapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var snapshot model.ProjectionSnapshot
	if err := json.Unmarshal(normalized, &snapshot); err != nil {
		return model.ProjectionSnapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	snapshot.SchemaVersion = version

	if snapshot.Data.SummaryMetrics == (model.SnapshotSummaryMetrics{}) && !snapshot.Data.Projection.Empty() {
		snapshot.Data.SummaryMetrics = Metrics(snapshot.Data.Projection)
		warnings = append(warnings, "summary metrics were missing and have been recomputed from the projection")
	}

	for _, warning := range warnings {
		logger.Warn(warning,
			zap.String("op", "snapshot.Load"),
			zap.String("id", snapshot.ID),
			zap.Int("schemaVersion", version),
		)
	}
	return snapshot, warnings, nil
}

// schemaVersion reads the version tag; a document without one predates
// versioning and counts as version 0.
func schemaVersion(doc map[string]any) (int, error) {
	value, ok := doc["schemaVersion"]
	if !ok || value == nil {
		return 0, nil
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: schemaVersion is %T, not a number", ErrMalformed, value)
	}
	v, err := number.Int64()
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid schemaVersion %s", ErrMalformed, number)
	}
	return int(v), nil
}

// migrateLegacy moves the unversioned flat shape, where inputs, projection and
// summaryMetrics sat beside the id, under data.
func migrateLegacy(doc map[string]any) []string {
	if _, ok := doc["data"]; ok {
		return nil
	}
	data := map[string]any{}
	moved := false
	for _, key := range []string{"inputs", "projection", "summaryMetrics"} {
		if value, ok := doc[key]; ok {
			data[key] = value
			delete(doc, key)
			moved = true
		}
	}
	doc["data"] = data
	if !moved {
		return []string{"snapshot has no inputs or projection"}
	}
	return nil
}

// hydrate rewrites every date field below value into RFC 3339 text in place.
// Fields that cannot be read are cleared and reported.
func hydrate(value any, path string) []string {
	var warnings []string
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := joinPath(path, key)
			switch {
			case dateKeys[key]:
				hydrated, warning := hydrateDate(child, childPath)
				v[key] = hydrated
				if warning != "" {
					warnings = append(warnings, warning)
				}
			case key == "dangerDays":
				if list, ok := child.([]any); ok {
					for i := range list {
						hydrated, warning := hydrateDate(list[i], fmt.Sprintf("%s[%d]", childPath, i))
						list[i] = hydrated
						if warning != "" {
							warnings = append(warnings, warning)
						}
					}
				}
			default:
				warnings = append(warnings, hydrate(child, childPath)...)
			}
		}
	case []any:
		for i, child := range v {
			warnings = append(warnings, hydrate(child, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}
	return warnings
}

func hydrateDate(value any, path string) (any, string) {
	var t time.Time
	switch v := value.(type) {
	case nil:
		return nil, ""
	case string:
		parsed, err := datetime.ParseFlexible(v)
		if err != nil {
			return nil, fmt.Sprintf("%s: %v; left empty", path, err)
		}
		t = parsed
	case json.Number:
		millis, err := v.Int64()
		if err != nil {
			return nil, fmt.Sprintf("%s: invalid epoch milliseconds %s; left empty", path, v)
		}
		t = time.UnixMilli(millis).UTC()
	case map[string]any:
		parsed, ok := timestampObject(v)
		if !ok {
			return nil, fmt.Sprintf("%s: unrecognized timestamp object; left empty", path)
		}
		t = parsed
	default:
		return nil, fmt.Sprintf("%s: unexpected %T for a date; left empty", path, value)
	}
	return t.Format(time.RFC3339Nano), ""
}

// timestampObject reads {seconds, nanoseconds}, with or without a leading
// underscore on the keys.
func timestampObject(v map[string]any) (time.Time, bool) {
	seconds, ok := numberField(v, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := numberField(v, "nanoseconds", "_nanoseconds")
	return time.Unix(seconds, nanos).UTC(), true
}

func numberField(v map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		if number, ok := v[key].(json.Number); ok {
			n, err := number.Int64()
			return n, err == nil
		}
	}
	return 0, false
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Rehydrate rewrites every date field of an arbitrary JSON document into
// RFC 3339 text so it can decode into model types. Unreadable dates are
// cleared and reported.
func Rehydrate(raw []byte) ([]byte, []string, error) {
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	warnings := hydrate(doc, "")
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return normalized, warnings, nil
}
