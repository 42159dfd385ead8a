package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classgen-server-go/config"
	"classgen-server-go/db"
	"classgen-server-go/exporter"
	"classgen-server-go/importer"
	"classgen-server-go/models"
	"classgen-server-go/service"
)

var (
	allocateInput       string
	allocateSeed        int64
	allocateOut         string
	allocateXLSX        string
	allocateFriendships string
	allocateJSON        bool
	allocateClasses     int
	allocateCapacity    int
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate a survey file into classes",
	Long: `Allocate the pupils in a CSV or XLSX survey into classes and write the results.

Without --seed a random seed is drawn and printed so the run can be repeated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts := allocationOptions(cfg)
		if allocateClasses > 0 {
			opts.ClassCount = allocateClasses
		}
		if allocateCapacity > 0 {
			opts.Capacity = allocateCapacity
		}

		students, err := readSurvey(allocateInput)
		if err != nil {
			return err
		}

		var seed *int64
		if cmd.Flags().Changed("seed") {
			seed = &allocateSeed
		}

		svc := service.NewAllocationService(db.NewMemoryStore(), opts, zap.NewNop())
		run, err := svc.Run(context.Background(), filepath.Base(allocateInput), students, seed)
		if err != nil {
			return err
		}

		if err := writeOutputs(run.Report); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if allocateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		printRun(out, run)
		return nil
	},
}

func init() {
	allocateCmd.Flags().StringVarP(&allocateInput, "input", "i", "", "Survey file (.csv or .xlsx)")
	allocateCmd.Flags().Int64Var(&allocateSeed, "seed", 0, "Seed for the processing order")
	allocateCmd.Flags().StringVarP(&allocateOut, "out", "o", "", "Write class lists as CSV")
	allocateCmd.Flags().StringVar(&allocateXLSX, "xlsx", "", "Write class lists, friendships and breakdown as XLSX")
	allocateCmd.Flags().StringVar(&allocateFriendships, "friendships", "", "Write the friendship summary as CSV")
	allocateCmd.Flags().BoolVar(&allocateJSON, "json", false, "Print the full run as JSON")
	allocateCmd.Flags().IntVar(&allocateClasses, "classes", 0, "Number of classes (overrides config)")
	allocateCmd.Flags().IntVar(&allocateCapacity, "capacity", 0, "Seats per class (overrides config)")
	_ = allocateCmd.MarkFlagRequired("input")
}

func readSurvey(path string) ([]models.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey: %w", err)
	}
	defer f.Close()

	students, err := importer.Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return students, nil
}

func writeOutputs(rep models.Report) error {
	outputs := []struct {
		path  string
		write func(io.Writer, models.Report) error
	}{
		{allocateOut, exporter.WriteCSV},
		{allocateXLSX, exporter.WriteExcel},
		{allocateFriendships, exporter.WriteFriendshipCSV},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, rep, o.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, rep models.Report, write func(io.Writer, models.Report) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := write(f, rep); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printRun(w io.Writer, run *models.Run) {
	stats := run.Report.Stats

	printSection(w, "Allocation")
	printField(w, "Source", run.Source)
	printField(w, "Seed", run.Seed)
	printField(w, "Students", stats.Students)
	printField(w, "Friends", fmt.Sprintf("%d of %d with a friend in class", stats.WithFriendPlaced, stats.WithFriendsListed))

	printSection(w, "Classes")
	for _, c := range run.Report.Classes {
		printField(w, c.Label, fmt.Sprintf("%d pupils", len(c.Students)))
		if len(c.Students) > 0 {
			printDim(w, "    "+strings.Join(c.Students, ", "))
		}
	}

	fmt.Fprintln(w)
	if stats.Unplaced == 0 {
		printSuccess(w, fmt.Sprintf("All %d students placed", stats.Placed))
		return
	}
	printWarning(w, fmt.Sprintf("%d %s could not be placed: %s",
		stats.Unplaced, plural(stats.Unplaced, "student", "students"), strings.Join(run.Report.Unplaced, ", ")))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
