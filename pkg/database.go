package digitizer

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// DetectorElementEntry is one row of the DetectorElements table. Lengths
// are stored in centimeters.
type DetectorElementEntry struct {
	ElementID   int     `db:"ElementID"`
	Name        string  `db:"Name"`
	Class       string  `db:"Class"`
	Radius      float64 `db:"Radius"`
	HalfLength  float64 `db:"HalfLength"`
	Z           float64 `db:"Z"`
	InnerRadius float64 `db:"InnerRadius"`
	OuterRadius float64 `db:"OuterRadius"`
}

func (entry DetectorElementEntry) element() (DetectorElement, error) {
	class, err := ParseGeometryClass(entry.Class)
	if err != nil {
		return DetectorElement{}, fmt.Errorf("element %d: %w", entry.ElementID, err)
	}
	return DetectorElement{
		ID:          int32(entry.ElementID),
		Name:        entry.Name,
		Class:       class,
		Radius:      entry.Radius * Centimeter,
		HalfLength:  entry.HalfLength * Centimeter,
		Z:           entry.Z * Centimeter,
		InnerRadius: entry.InnerRadius * Centimeter,
		OuterRadius: entry.OuterRadius * Centimeter,
	}, nil
}

const geometryQuery = "SELECT ElementID, Name, Class, Radius, HalfLength, Z, InnerRadius, OuterRadius " +
	"FROM DetectorElements WHERE MinRun <= ? and MaxRun >= ? ORDER BY ElementID"

// LoadGeometryFromDB reads the element mapping valid for runNumber.
func LoadGeometryFromDB(db *sqlx.DB, runNumber int) (*Geometry, error) {
	if configuration.Verbosity > 0 {
		logger.Info("Detector elements read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", geometryQuery, runNumber)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(geometryQuery, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	elements := make([]DetectorElement, 0, 16)
	for rows.Next() {
		result := DetectorElementEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		element, err := result.element()
		if err != nil {
			return nil, &ErrInvalidGeometry{Reason: err.Error()}
		}
		elements = append(elements, element)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return NewGeometry(elements)
}
