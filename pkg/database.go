package pid

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

type AoQCorrectionEntry struct {
	Spectrometer string  `db:"Spectrometer"`
	FocalPlane   int     `db:"FocalPlane"`
	Term         string  `db:"Term"`
	Value        float64 `db:"Value"`
}

type ZCorrectionEntry struct {
	Spectrometer string  `db:"Spectrometer"`
	Term         string  `db:"Term"`
	Value        float64 `db:"Value"`
}

type TOFOffsetEntry struct {
	TOFIndex int     `db:"TOFIndex"`
	Offset   float64 `db:"Offset"`
}

type RunStartEntry struct {
	RunNumber  int   `db:"RunNumber"`
	StartEvent int64 `db:"StartEvent"`
}

// LoadRunCalibration overrides the file values of config with the
// database ones valid for run. It does nothing when config.NoDB is set.
func LoadRunCalibration(config *Configuration, run int) error {
	if config.NoDB {
		return nil
	}
	dbConn, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()
	return LoadDatabase(dbConn, run, config)
}

// LoadDatabase overrides the calibration constants of config with the
// values valid for runNumber.
func LoadDatabase(dbConn *sqlx.DB, runNumber int, config *Configuration) error {
	aoq, err := queryRows[AoQCorrectionEntry](dbConn,
		"SELECT Spectrometer, FocalPlane, Term, Value FROM AoQCorrections WHERE MinRun <= %d and MaxRun >= %d",
		runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting A/Q corrections from database: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	z, err := queryRows[ZCorrectionEntry](dbConn,
		"SELECT Spectrometer, Term, Value FROM ZCorrections WHERE MinRun <= %d and MaxRun >= %d",
		runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting Z corrections from database: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	tofs, err := queryRows[TOFOffsetEntry](dbConn,
		"SELECT TOFIndex, Offset FROM TOFOffsets WHERE MinRun <= %d and MaxRun >= %d ORDER BY TOFIndex",
		runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting TOF offsets from database: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	starts, err := queryRows[RunStartEntry](dbConn,
		"SELECT RunNumber, StartEvent FROM RunStartEvents WHERE RunNumber = %d", runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting run start event from database: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}

	if err := applyCalibrationEntries(config, aoq, z, tofs, starts); err != nil {
		errMessage := fmt.Errorf("error applying database calibration: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Read %d A/Q, %d Z, %d TOF calibration entries for run %d",
			len(aoq), len(z), len(tofs), runNumber)
		logger.Info(message, "database")
	}
	return nil
}

func queryRows[T any](db *sqlx.DB, query string, args ...any) ([]T, error) {
	query = fmt.Sprintf(query, args...)
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	results := make([]T, 0)
	for rows.Next() {
		var result T
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func findGroup(config *Configuration, name string) (*GroupConfig, error) {
	for i := range config.Groups {
		if config.Groups[i].Name == name {
			return &config.Groups[i], nil
		}
	}
	return nil, fmt.Errorf("unknown spectrometer %q", name)
}

func applyCalibrationEntries(config *Configuration, aoq []AoQCorrectionEntry, z []ZCorrectionEntry,
	tofs []TOFOffsetEntry, starts []RunStartEntry) error {
	for _, entry := range aoq {
		group, err := findGroup(config, entry.Spectrometer)
		if err != nil {
			return err
		}
		switch entry.Term {
		case "Gain":
			group.AoQGain = entry.Value
			continue
		case "Offs":
			group.AoQOffset = entry.Value
			continue
		}
		if group.AoQ == nil {
			group.AoQ = make(map[int]AoQCorrections)
		}
		coeffs := group.AoQ[entry.FocalPlane]
		if err := coeffs.Set(entry.Term, entry.Value); err != nil {
			return fmt.Errorf("%s F%d: %w", entry.Spectrometer, entry.FocalPlane, err)
		}
		group.AoQ[entry.FocalPlane] = coeffs
	}
	for _, entry := range z {
		group, err := findGroup(config, entry.Spectrometer)
		if err != nil {
			return err
		}
		if err := group.Z.Set(entry.Term, entry.Value); err != nil {
			return fmt.Errorf("%s: %w", entry.Spectrometer, err)
		}
	}
	for _, entry := range tofs {
		if entry.TOFIndex < 0 || entry.TOFIndex >= len(config.TOF) {
			return fmt.Errorf("TOF index %d out of range", entry.TOFIndex)
		}
		config.TOF[entry.TOFIndex].Offset = entry.Offset
	}
	for _, entry := range starts {
		if config.RunStartEvents == nil {
			config.RunStartEvents = make(map[int]int64)
		}
		config.RunStartEvents[entry.RunNumber] = entry.StartEvent
	}
	return nil
}
