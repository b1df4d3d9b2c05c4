// seed_flock.go — standalone script to parse a flock CSV and seed animals and
// KPI records via the flockrank API.
//
// Expected CSV header:
//
//	animal_id,sex,birth_date,mgmt_group,sire_id,dam_id,cull_flag,cull_reason,<kpi columns...>
//
// Any column after cull_reason is treated as a KPI name; an empty cell means
// the measurement is missing and is not sent.
//
// Usage:
//
//	go run scripts/seed_flock.go -csv /path/to/flock.csv -api http://localhost:8700
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
)

const fixedColumns = 8

type animalPayload struct {
	Sex        string `json:"sex"`
	BirthDate  string `json:"birth_date"`
	MgmtGroup  string `json:"mgmt_group"`
	SireID     string `json:"sire_id,omitempty"`
	DamID      string `json:"dam_id,omitempty"`
	CullFlag   bool   `json:"cull_flag"`
	CullReason string `json:"cull_reason,omitempty"`
}

func main() {
	csvPath := flag.String("csv", "flock.csv", "path to flock CSV file")
	apiURL := flag.String("api", "http://localhost:8700", "flockrank API base URL")
	dryRun := flag.Bool("dry-run", false, "print payloads without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("parse csv: %v", err)
	}
	if len(rows) < 2 {
		log.Fatalf("csv has no data rows")
	}

	header := rows[0]
	if len(header) < fixedColumns {
		log.Fatalf("csv header has %d columns, need at least %d", len(header), fixedColumns)
	}
	kpiNames := header[fixedColumns:]

	seeded := 0
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			log.Printf("row %d: %d columns, expected %d, skipping", i+2, len(row), len(header))
			continue
		}

		animalID := row[0]
		cullFlag, _ := strconv.ParseBool(row[6])
		animal := animalPayload{
			Sex:        row[1],
			BirthDate:  row[2],
			MgmtGroup:  row[3],
			SireID:     row[4],
			DamID:      row[5],
			CullFlag:   cullFlag,
			CullReason: row[7],
		}

		kpis := make(map[string]float64)
		for j, name := range kpiNames {
			cell := row[fixedColumns+j]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				log.Printf("row %d: bad value %q for kpi %s, skipping cell", i+2, cell, name)
				continue
			}
			kpis[name] = v
		}

		if *dryRun {
			fmt.Printf("%s: %+v kpis=%v\n", animalID, animal, kpis)
			continue
		}

		if err := put(*apiURL+"/api/v1/animals/"+animalID, animal); err != nil {
			log.Printf("seed animal %s: %v", animalID, err)
			continue
		}
		if len(kpis) > 0 {
			if err := put(*apiURL+"/api/v1/animals/"+animalID+"/kpis", kpis); err != nil {
				log.Printf("seed kpis %s: %v", animalID, err)
				continue
			}
		}
		seeded++
	}

	log.Printf("seeded %d animals", seeded)
}

func put(url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return nil
}
