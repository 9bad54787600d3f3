// turf-report is an offline companion tool: it lists stored surveys and
// renders a selected survey's boundary polygon to a PNG for review.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	_ "modernc.org/sqlite"

	"github.com/greensward-data/turf.report/internal/config"
	"github.com/greensward-data/turf.report/internal/db"
	"github.com/greensward-data/turf.report/internal/report"
	"github.com/greensward-data/turf.report/internal/units"
)

var (
	dbPath    = flag.String("db", "surveys.db", "Path to the survey database")
	surveyID  = flag.String("id", "", "Survey to render; omit to list stored surveys")
	outputDir = flag.String("out", "plots", "Directory for rendered plots")
	unitsFlag = flag.String("units", "", "Display units (sqm, sqft, acre, ha)")
	limit     = flag.Int("limit", 0, "Maximum surveys to list (0 = all)")
)

func main() {
	flag.Parse()

	targetUnits := *unitsFlag
	if targetUnits == "" {
		targetUnits = config.DefaultTuningConfig().GetUnits()
	}
	if !units.IsValid(targetUnits) {
		log.Fatalf("invalid units %q: valid values are %s", targetUnits, units.GetValidUnitsString())
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if *surveyID == "" {
		listSurveys(database, targetUnits)
		return
	}

	survey, err := database.GetSurvey(*surveyID)
	if err != nil {
		log.Fatalf("failed to load survey: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	path, err := report.RenderSurvey(survey, targetUnits, *outputDir)
	if err != nil {
		log.Fatalf("failed to render survey: %v", err)
	}
	fmt.Printf("wrote %s\n", path)
}

func listSurveys(database *db.DB, targetUnits string) {
	surveys, err := database.ListSurveys(*limit)
	if err != nil {
		log.Fatalf("failed to list surveys: %v", err)
	}
	if len(surveys) == 0 {
		fmt.Println("no surveys recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SURVEY\tSTOPPED\tPOINTS\tAREA\tPERIMETER")
	for _, s := range surveys {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f %s\t%.1f m\n",
			s.SurveyID,
			s.StoppedAt.Local().Format("2006-01-02 15:04"),
			s.PointCount,
			units.ConvertArea(s.AreaSqMeters, targetUnits), targetUnits,
			s.PerimeterMeters,
		)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("failed to write table: %v", err)
	}
}
