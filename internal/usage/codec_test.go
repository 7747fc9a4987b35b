package usage

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestWriteReadFile(t *testing.T) {
	ix := twoUnitIndex()
	meta := Meta{CompileDB: "compile_commands.json", Fingerprint: "abc", Marker: "linux"}

	for _, name := range []string{"usage.json", "usage.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := WriteFile(path, ix, meta); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			got, gotMeta, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if !ix.Equal(got) {
				t.Error("round trip changed the index")
			}
			if !reflect.DeepEqual(got.UnitIDs(), ix.UnitIDs()) {
				t.Errorf("unit order = %v, want %v", got.UnitIDs(), ix.UnitIDs())
			}
			if gotMeta.Fingerprint != "abc" || gotMeta.Marker != "linux" || gotMeta.Units != 2 || gotMeta.Symbols != 3 {
				t.Errorf("unexpected meta: %+v", gotMeta)
			}
		})
	}
}

func TestWriteFile_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json.zst")
	if err := WriteFile(path, twoUnitIndex(), Meta{}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// zstd frame magic
	if !bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Error("expected a zstd frame")
	}
}

func TestDecode_LegacyDocument(t *testing.T) {
	doc := `{"data": {"foo": ["/a.c", "/b.c"], "bar": ["/a.c"]}}`
	ix, meta, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ix.CoOccurrence("foo", "bar") != 1 {
		t.Error("legacy document not loaded")
	}
	if meta.Units != 2 || meta.Symbols != 2 {
		t.Errorf("meta counts = %+v", meta)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":      `data`,
		"missing data":  `{"version": 1}`,
		"newer version": `{"version": 99, "data": {}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Decode(strings.NewReader(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "none.json")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
