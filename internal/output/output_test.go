package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isatab"
)

func testInvestigation() *isa.Investigation {
	protocol := &isa.Protocol{Name: "Vibration measurement"}
	source := &isa.Source{Name: "Rig 1"}
	sample := &isa.Sample{Name: "Rig 1 Run 01", DerivesFrom: []*isa.Source{source}}
	prep := isa.NewProcess("Experiment Preparation", &isa.Protocol{Name: "Experiment Preparation"})
	prep.AddInput(source)
	prep.AddOutput(sample)

	raw := isa.NewDataFile("r1.csv", isa.RawDataFileLabel, sample)
	measure := isa.NewProcess("run 01", protocol)
	measure.AddInput(sample)
	measure.AddOutput(raw)

	study := &isa.Study{
		Identifier:      "st1",
		Title:           "Größe",
		Filename:        "s_st1.txt",
		Protocols:       []*isa.Protocol{protocol},
		Sources:         []*isa.Source{source},
		Samples:         []*isa.Sample{sample},
		ProcessSequence: []*isa.Process{prep},
	}
	study.AddAssay(&isa.Assay{
		Filename:        "a_st1_s1.txt",
		Samples:         []*isa.Sample{sample},
		DataFiles:       []*isa.DataFile{raw},
		ProcessSequence: []*isa.Process{measure},
	})

	investigation := &isa.Investigation{Identifier: "i1", Filename: "i_investigation.txt"}
	investigation.AddStudy(study)
	return investigation
}

// listFiles returns every regular file below root.
func listFiles(t *testing.T, fs afero.Fs, root string) []string {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestJSONSink(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, NewJSONSink(fs, "/out/isa.json", 2).Apply(testInvestigation()))

	data, err := afero.ReadFile(fs, "/out/isa.json")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "i1", doc["identifier"])
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""))

	assert.Equal(t, []string{"/out/isa.json"}, listFiles(t, fs, "/out"))
}

func TestTabSink(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, NewTabSink(fs, "/out/isatab").Apply(testInvestigation()))

	assert.ElementsMatch(t, []string{
		"/out/isatab/i_investigation.txt",
		"/out/isatab/s_st1.txt",
		"/out/isatab/a_st1_s1.txt",
	}, listFiles(t, fs, "/out"))

	data, err := afero.ReadFile(fs, "/out/isatab/a_st1_s1.txt")
	require.NoError(t, err)
	assert.Equal(t, "Sample Name\tProtocol REF\tRaw Data File\nRig 1 Run 01\tVibration measurement\tr1.csv\n", string(data))
}

func TestTabSinkPackagedWindows1252(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewTabSink(fs, "/out")
	sink.SetPackaged(true)
	sink.SetEncoding(charmap.Windows1252)
	require.NoError(t, sink.Apply(testInvestigation()))

	assert.ElementsMatch(t, []string{
		"/out/i_investigation.txt",
		"/out/Studies/s_st1.txt",
		"/out/Assays/a_st1_s1.txt",
	}, listFiles(t, fs, "/out"))

	data, err := afero.ReadFile(fs, "/out/i_investigation.txt")
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("Study Title\tGr\xf6\xdfe\n")))
}

func TestWorkbookSink(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, NewWorkbookSink(fs, "/out/isa.xlsx").Apply(testInvestigation()))

	in, err := fs.Open("/out/isa.xlsx")
	require.NoError(t, err)
	defer in.Close()

	f, err := excelize.OpenReader(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"i_investigation", "s_st1", "a_st1_s1"}, f.GetSheetList())

	rows, err := f.GetRows("a_st1_s1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sample Name", "Protocol REF", "Raw Data File"},
		{"Rig 1 Run 01", "Vibration measurement", "r1.csv"},
	}, rows)
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "s_st1", sheetName("s_st1.txt", used))
	assert.Equal(t, "S_ST1_2", sheetName("S_ST1.txt", used))
	assert.Equal(t, "a_a_b", sheetName("a_a/b.txt", used))

	long := sheetName("a_"+strings.Repeat("x", 40)+".txt", used)
	assert.Len(t, long, maxSheetName)
	again := sheetName("a_"+strings.Repeat("x", 40)+".txt", used)
	assert.Len(t, again, maxSheetName)
	assert.True(t, strings.HasSuffix(again, "_2"))
}

func TestPackagedPath(t *testing.T) {
	assert.Equal(t, "s_st1.txt", PackagedPath(isatab.File{Name: "s_st1.txt"}, false))
	assert.Equal(t, "Studies/s_st1.txt", PackagedPath(isatab.File{Name: "s_st1.txt"}, true))
	assert.Equal(t, "Assays/a_st1_s1.txt", PackagedPath(isatab.File{Name: "a_st1_s1.txt"}, true))
	assert.Equal(t, "i_investigation.txt", PackagedPath(isatab.File{Name: "i_investigation.txt"}, true))
}

func TestStagingLeavesNothingOnFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.txt", []byte("old"), 0644))

	err := stage(func(s *staging) error {
		if err := s.write(fs, "/out/a.txt", func(w io.Writer) error {
			_, err := w.Write([]byte("new"))
			return err
		}); err != nil {
			return err
		}
		return s.write(fs, "/out/b.txt", func(w io.Writer) error {
			return errors.New("disk full")
		})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, []string{"/out/a.txt"}, listFiles(t, fs, "/out"))
	data, err := afero.ReadFile(fs, "/out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestStagingCleansUpAfterFailedMove(t *testing.T) {
	fs := &failingFs{Fs: afero.NewMemMapFs(), failRename: 2}

	err := NewTabSink(fs, "/out").Apply(testInvestigation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to move /out/s_st1.txt into place")
	assert.Contains(t, err.Error(), "/out/i_investigation.txt was already written")

	assert.Equal(t, []string{"/out/i_investigation.txt"}, listFiles(t, fs, "/out"))
}

func TestApplyLeavesNothingWhenASinkFails(t *testing.T) {
	fs := &failingFs{Fs: afero.NewMemMapFs(), failCreateUnder: "/tab"}

	err := Apply(testInvestigation(), NewJSONSink(fs, "/out.json", 2), NewTabSink(fs, "/tab"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	exists, err := afero.Exists(fs, "/out.json")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, listFiles(t, fs, "/"))
}

func TestApplyWritesEverySink(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Apply(testInvestigation(),
		NewJSONSink(fs, "/out/isa.json", 0),
		NewTabSink(fs, "/out/isatab"),
		NewWorkbookSink(fs, "/out/isa.xlsx")))

	assert.ElementsMatch(t, []string{
		"/out/isa.json",
		"/out/isa.xlsx",
		"/out/isatab/i_investigation.txt",
		"/out/isatab/s_st1.txt",
		"/out/isatab/a_st1_s1.txt",
	}, listFiles(t, fs, "/out"))
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	var calls []string
	failing := sinkFunc(func(*isa.Investigation) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	})
	never := sinkFunc(func(*isa.Investigation) error {
		calls = append(calls, "never")
		return nil
	})

	assert.EqualError(t, Apply(testInvestigation(), failing, never), "boom")
	assert.Equal(t, []string{"failing"}, calls)
}

type sinkFunc func(*isa.Investigation) error

func (f sinkFunc) Apply(investigation *isa.Investigation) error {
	return f(investigation)
}

// failingFs fails the failRename'th rename and every create below
// failCreateUnder.
type failingFs struct {
	afero.Fs
	failRename      int
	failCreateUnder string
	renames         int
}

func (fs *failingFs) Create(name string) (afero.File, error) {
	if fs.failCreateUnder != "" && strings.HasPrefix(name, fs.failCreateUnder+"/") {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fs.Fs.Create(name)
}

func (fs *failingFs) Rename(oldname, newname string) error {
	fs.renames++
	if fs.renames == fs.failRename {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return fs.Fs.Rename(oldname, newname)
}
