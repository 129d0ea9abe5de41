package db

import "testing"

func TestImportedFiles_RoundTrip(t *testing.T) {
	d := testDB(t)

	_, ok, err := d.GetImportedFile("/inbox/a.jsonl")
	if err != nil {
		t.Fatalf("GetImportedFile: %v", err)
	}
	if ok {
		t.Fatal("expected no fingerprint before import")
	}

	f := ImportedFile{
		Path: "/inbox/a.jsonl", Size: 120, MTime: 1700000000,
		UserID: tenantA, Rows: 3,
	}
	if err := d.RecordImportedFile(f); err != nil {
		t.Fatalf("RecordImportedFile: %v", err)
	}

	got, ok, err := d.GetImportedFile(f.Path)
	if err != nil || !ok {
		t.Fatalf("GetImportedFile: ok=%v err=%v", ok, err)
	}
	if got != f {
		t.Errorf("got %+v, want %+v", got, f)
	}
	if !got.Unchanged(120, 1700000000) {
		t.Error("expected unchanged fingerprint")
	}
	if got.Unchanged(121, 1700000000) {
		t.Error("size change not detected")
	}
}

func TestImportedFiles_RecordOverwrites(t *testing.T) {
	d := testDB(t)
	path := "/inbox/b.jsonl"
	for _, size := range []int64{10, 20} {
		if err := d.RecordImportedFile(ImportedFile{
			Path: path, Size: size, MTime: 1, UserID: tenantA,
		}); err != nil {
			t.Fatalf("RecordImportedFile: %v", err)
		}
	}
	got, _, err := d.GetImportedFile(path)
	if err != nil {
		t.Fatalf("GetImportedFile: %v", err)
	}
	if got.Size != 20 {
		t.Errorf("Size = %d, want 20", got.Size)
	}
}

func TestImportedFiles_Delete(t *testing.T) {
	d := testDB(t)
	path := "/inbox/c.jsonl"
	if err := d.RecordImportedFile(ImportedFile{
		Path: path, Size: 1, MTime: 1, UserID: tenantA,
	}); err != nil {
		t.Fatalf("RecordImportedFile: %v", err)
	}
	if err := d.DeleteImportedFile(path); err != nil {
		t.Fatalf("DeleteImportedFile: %v", err)
	}
	if _, ok, _ := d.GetImportedFile(path); ok {
		t.Error("fingerprint still present after delete")
	}
}
