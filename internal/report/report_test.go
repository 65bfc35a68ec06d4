package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spigell/resume-matcher/internal/matching"
)

var results = []matching.Result{
	{
		ResumeID:                  "jane, doe.docx",
		BestPositionTitle:         "Engineer",
		LocationMatch:             true,
		ExperienceMatch:           true,
		QualificationMatch:        true,
		Decision:                  matching.Use,
		QualificationMatchPercent: 100,
		MatchedQualifications:     []string{"Python", "SQL"},
		TotalScore:                3,
	},
	{
		ResumeID:                  "john.txt",
		BestPositionTitle:         "Engineer",
		Decision:                  matching.DoNotUse,
		QualificationMatchPercent: 33,
		MatchedQualifications:     []string{"Go \"lang\""},
		TotalScore:                0,
	},
	matching.UnreadableResult("scan.pdf"),
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Resume,Best Match Position,Location Match,Experience Match,QR Match,QR Match %,Matched QRs,Total Score,Decision\n" +
		"\"jane, doe.docx\",Engineer,Yes,Yes,Yes,100,\"Python, SQL\",3,Use\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSVFile(path, results); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	got, err := ParseCSV(file)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, results) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, results)
	}
}

func TestParseCSVErrors(t *testing.T) {
	header := strings.Join(Columns, ",") + "\n"

	tests := map[string]string{
		"empty":          "",
		"wrong header":   "Resume,Position\n",
		"bad boolean":    header + "a,b,maybe,No,No,0,,0,Do Not Use\n",
		"bad percent":    header + "a,b,No,No,No,120,,0,Do Not Use\n",
		"bad decision":   header + "a,b,No,No,No,0,,0,Perhaps\n",
		"short row":      header + "a,b,No\n",
		"negative total": header + "a,b,No,No,No,0,,-1,Do Not Use\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(input)); err == nil {
				t.Fatalf("expected error for %q", input)
			}
		})
	}
}

func TestByPosition(t *testing.T) {
	report := ByPosition(results)

	if len(report["Engineer"]) != 2 {
		t.Fatalf("expected 2 entries for Engineer, got %d", len(report["Engineer"]))
	}
	entry := report["Engineer"][0]
	if entry["resume"] != "jane, doe.docx" || entry["decision"] != "Use" || entry["matched_qrs"] != "Python, SQL" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	unreadable := report[unreadableKey]
	if len(unreadable) != 1 || unreadable[0]["decision"] != string(matching.Unreadable) {
		t.Fatalf("unexpected unreadable entries: %v", unreadable)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	dump := &Dump{RunID: "run-1", Strategy: "lexical", Results: results, Failed: []string{"boom.txt"}}

	name, err := dump.DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(name)

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var got Dump
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if got.RunID != "run-1" || len(got.Results) != 3 || got.Results[2].Decision != matching.Unreadable {
		t.Fatalf("unexpected dump: %+v", got)
	}
}

func TestToExcluded(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	excluded := ToExcluded(results, at)
	if !reflect.DeepEqual(excluded.IDs(), []string{"jane, doe.docx", "john.txt", "scan.pdf"}) {
		t.Fatalf("unexpected ids: %v", excluded.IDs())
	}
	first := excluded.Items[0]
	if first.Position != "Engineer" || first.Decision != "Use" || first.ExcludedAt.Location() != time.UTC {
		t.Fatalf("unexpected first entry: %+v", first)
	}
}
