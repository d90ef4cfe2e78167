package archive

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// MemoryLocation is a resolved point in space attached to a piece of
// provenance, optionally named (e.g. "Home", "Office") by the archive
// owner.
type MemoryLocation struct {
	Latitude      float64
	Longitude     float64
	AltitudeM     *float64
	NamedLocation *string
}

// MemoryDevice describes the capture device recorded in an agent/device
// provenance entry (spec §3 prov_agent_device).
type MemoryDevice struct {
	Make  *string
	Model *string
}

// MemoryLocationResult is one row of a spatial memory search: a note with
// an attachment whose provenance places it within the requested radius.
type MemoryLocationResult struct {
	NoteID         string
	AttachmentID   string
	Title          *string
	Location       MemoryLocation
	DistanceMeters float64
	CapturedAt     *time.Time
}

// MemoryTimeResult is one row of a temporal memory search: a note with an
// attachment captured within the requested time range.
type MemoryTimeResult struct {
	NoteID       string
	AttachmentID string
	Title        *string
	Location     *MemoryLocation
	CapturedAt   time.Time
}

// FileProvenanceRecord is one attachment's full provenance: where and
// when it was captured, and on what device, when that metadata exists.
type FileProvenanceRecord struct {
	AttachmentID string
	CapturedAt   *time.Time
	Location     *MemoryLocation
	Device       *MemoryDevice
}

// MemoryProvenance collects every attachment's provenance for a single
// note, the unit the "memories" view of a note groups by.
type MemoryProvenance struct {
	NoteID string
	Files  []FileProvenanceRecord
}

// limitLiteral bounds every query below; these are browse endpoints, not
// exports, and an unbounded radius or range query over a large archive
// would otherwise scan the whole provenance table. Inlined into the SQL
// text itself rather than bound as a parameter, consistent with how the
// rest of this package keeps static bounds in the query string and
// reserves placeholders for caller input.
const limitLiteral = "100"

// MemorySearchRepository is the C4 façade over file_provenance,
// prov_location, named_location and prov_agent_device: the "where and
// when was this captured" view behind memory search (spec §3, §4.4).
//
// Every method here takes an explicit Queryer, so unlike the Rust
// original this package has no separate pool-direct vs. transaction-aware
// method pairs: callers that want transactional consistency pass a tx,
// callers that don't can pass one scoped to a single read.
type MemorySearchRepository struct{}

// NewMemorySearchRepository returns a stateless façade.
func NewMemorySearchRepository() *MemorySearchRepository { return &MemorySearchRepository{} }

// SearchByLocation finds notes whose attachments were captured within
// radiusMeters of (lat, lon), nearest first. Uses PostGIS geography
// distance, consistent with prov_location storing WGS84 points.
func (r *MemorySearchRepository) SearchByLocation(ctx context.Context, tx Queryer, lat, lon, radiusMeters float64) ([]MemoryLocationResult, error) {
	rows, err := tx.Query(ctx, `
		SELECT
			fp.note_id,
			fp.attachment_id,
			n.title,
			pl.latitude,
			pl.longitude,
			pl.altitude_m,
			nl.name,
			ST_Distance(
				ST_SetSRID(ST_MakePoint(pl.longitude, pl.latitude), 4326)::geography,
				ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography
			) AS distance_meters,
			fp.captured_at
		FROM file_provenance fp
		JOIN attachment a ON a.id = fp.attachment_id
		JOIN attachment_blob ab ON ab.id = a.blob_id
		JOIN prov_location pl ON pl.id = fp.location_id
		JOIN note n ON n.id = fp.note_id
		LEFT JOIN named_location nl ON nl.id = pl.named_location_id
		WHERE ST_DWithin(
			ST_SetSRID(ST_MakePoint(pl.longitude, pl.latitude), 4326)::geography,
			ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography,
			$3
		)
		ORDER BY distance_meters ASC
		LIMIT `+limitLiteral, lat, lon, radiusMeters)
	if err != nil {
		return nil, matricerr.Databasef(err, "search memories by location")
	}
	defer rows.Close()

	var out []MemoryLocationResult
	for rows.Next() {
		var m MemoryLocationResult
		if err := rows.Scan(&m.NoteID, &m.AttachmentID, &m.Title,
			&m.Location.Latitude, &m.Location.Longitude, &m.Location.AltitudeM, &m.Location.NamedLocation,
			&m.DistanceMeters, &m.CapturedAt); err != nil {
			return nil, matricerr.Databasef(err, "scan memory location result")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate memory location results")
	}
	return out, nil
}

// SearchByTimeRange finds notes whose attachments were captured within
// [start, end], most recent first.
func (r *MemorySearchRepository) SearchByTimeRange(ctx context.Context, tx Queryer, start, end time.Time) ([]MemoryTimeResult, error) {
	rows, err := tx.Query(ctx, `
		SELECT
			fp.note_id,
			fp.attachment_id,
			n.title,
			pl.latitude,
			pl.longitude,
			pl.altitude_m,
			nl.name,
			fp.captured_at
		FROM file_provenance fp
		JOIN attachment a ON a.id = fp.attachment_id
		JOIN note n ON n.id = fp.note_id
		LEFT JOIN prov_location pl ON pl.id = fp.location_id
		LEFT JOIN named_location nl ON nl.id = pl.named_location_id
		WHERE fp.captured_at IS NOT NULL
		  AND tstzrange($1, $2, '[]') @> fp.captured_at
		ORDER BY fp.captured_at DESC
		LIMIT `+limitLiteral, start, end)
	if err != nil {
		return nil, matricerr.Databasef(err, "search memories by time range")
	}
	defer rows.Close()

	var out []MemoryTimeResult
	for rows.Next() {
		var m MemoryTimeResult
		var lat, lon, namedLoc any
		var alt any
		if err := rows.Scan(&m.NoteID, &m.AttachmentID, &m.Title, &lat, &lon, &alt, &namedLoc, &m.CapturedAt); err != nil {
			return nil, matricerr.Databasef(err, "scan memory time result")
		}
		m.Location = scanOptionalLocation(lat, lon, alt, namedLoc)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate memory time results")
	}
	return out, nil
}

// SearchByLocationAndTime combines the radius and time-range filters of
// SearchByLocation and SearchByTimeRange.
func (r *MemorySearchRepository) SearchByLocationAndTime(ctx context.Context, tx Queryer, lat, lon, radiusMeters float64, start, end time.Time) ([]MemoryLocationResult, error) {
	rows, err := tx.Query(ctx, `
		SELECT
			fp.note_id,
			fp.attachment_id,
			n.title,
			pl.latitude,
			pl.longitude,
			pl.altitude_m,
			nl.name,
			ST_Distance(
				ST_SetSRID(ST_MakePoint(pl.longitude, pl.latitude), 4326)::geography,
				ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography
			) AS distance_meters,
			fp.captured_at
		FROM file_provenance fp
		JOIN attachment a ON a.id = fp.attachment_id
		JOIN prov_location pl ON pl.id = fp.location_id
		JOIN note n ON n.id = fp.note_id
		LEFT JOIN named_location nl ON nl.id = pl.named_location_id
		WHERE ST_DWithin(
			ST_SetSRID(ST_MakePoint(pl.longitude, pl.latitude), 4326)::geography,
			ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography,
			$3
		)
		AND fp.captured_at IS NOT NULL
		AND tstzrange($4, $5, '[]') @> fp.captured_at
		ORDER BY distance_meters ASC
		LIMIT `+limitLiteral, lat, lon, radiusMeters, start, end)
	if err != nil {
		return nil, matricerr.Databasef(err, "search memories by location and time")
	}
	defer rows.Close()

	var out []MemoryLocationResult
	for rows.Next() {
		var m MemoryLocationResult
		if err := rows.Scan(&m.NoteID, &m.AttachmentID, &m.Title,
			&m.Location.Latitude, &m.Location.Longitude, &m.Location.AltitudeM, &m.Location.NamedLocation,
			&m.DistanceMeters, &m.CapturedAt); err != nil {
			return nil, matricerr.Databasef(err, "scan memory location+time result")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate memory location+time results")
	}
	return out, nil
}

// GetMemoryProvenance assembles every attachment's provenance for noteID:
// its capture time, resolved location (if any) and capture device (if
// any).
func (r *MemorySearchRepository) GetMemoryProvenance(ctx context.Context, tx Queryer, noteID string) (*MemoryProvenance, error) {
	rows, err := tx.Query(ctx, `
		SELECT attachment_id, captured_at, location_id, device_id
		FROM file_provenance
		WHERE note_id = $1
	`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list file provenance for note %s", noteID)
	}

	type rawRow struct {
		attachmentID string
		capturedAt   *time.Time
		locationID   *string
		deviceID     *string
	}
	var raws []rawRow
	for rows.Next() {
		var rr rawRow
		if err := rows.Scan(&rr.attachmentID, &rr.capturedAt, &rr.locationID, &rr.deviceID); err != nil {
			rows.Close()
			return nil, matricerr.Databasef(err, "scan file provenance row")
		}
		raws = append(raws, rr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, matricerr.Databasef(err, "iterate file provenance rows")
	}
	rows.Close()

	prov := &MemoryProvenance{NoteID: noteID}
	for _, rr := range raws {
		rec := FileProvenanceRecord{AttachmentID: rr.attachmentID, CapturedAt: rr.capturedAt}
		if rr.locationID != nil {
			loc, err := r.getLocation(ctx, tx, *rr.locationID)
			if err != nil {
				return nil, err
			}
			rec.Location = loc
		}
		if rr.deviceID != nil {
			dev, err := r.getDevice(ctx, tx, *rr.deviceID)
			if err != nil {
				return nil, err
			}
			rec.Device = dev
		}
		prov.Files = append(prov.Files, rec)
	}
	return prov, nil
}

func (r *MemorySearchRepository) getLocation(ctx context.Context, tx Queryer, locationID string) (*MemoryLocation, error) {
	var loc MemoryLocation
	err := tx.QueryRow(ctx, `
		SELECT pl.latitude, pl.longitude, pl.altitude_m, nl.name
		FROM prov_location pl
		LEFT JOIN named_location nl ON nl.id = pl.named_location_id
		WHERE pl.id = $1
	`, locationID).Scan(&loc.Latitude, &loc.Longitude, &loc.AltitudeM, &loc.NamedLocation)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, matricerr.Databasef(err, "get prov_location %s", locationID)
	}
	return &loc, nil
}

func (r *MemorySearchRepository) getDevice(ctx context.Context, tx Queryer, deviceID string) (*MemoryDevice, error) {
	var dev MemoryDevice
	err := tx.QueryRow(ctx, `
		SELECT make, model FROM prov_agent_device WHERE id = $1
	`, deviceID).Scan(&dev.Make, &dev.Model)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, matricerr.Databasef(err, "get prov_agent_device %s", deviceID)
	}
	return &dev, nil
}

// scanOptionalLocation builds a MemoryLocation from a LEFT JOIN's
// possibly-all-NULL columns, returning nil when no location was joined.
func scanOptionalLocation(lat, lon, alt, namedLoc any) *MemoryLocation {
	latF, ok := lat.(float64)
	if !ok {
		return nil
	}
	lonF, ok := lon.(float64)
	if !ok {
		return nil
	}
	loc := &MemoryLocation{Latitude: latF, Longitude: lonF}
	if a, ok := alt.(float64); ok {
		loc.AltitudeM = &a
	}
	if n, ok := namedLoc.(string); ok {
		loc.NamedLocation = &n
	}
	return loc
}
