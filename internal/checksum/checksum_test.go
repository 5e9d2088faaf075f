package checksum

import (
	"testing"

	"ccr-registry-scraper/internal/scraper"
)

func sampleRecord() scraper.Record {
	return scraper.MapRow([]string{"100234", "عمان", "12/03/2019", "أحمد", "شارع الملك", "مؤسسة النور", "5000", "قائمة", "عرض"})
}

func TestGenerateRecordHash(t *testing.T) {
	gen := NewGenerator()
	r := sampleRecord()

	hash1 := gen.GenerateRecordHash(r)
	hash2 := gen.GenerateRecordHash(r)

	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	changed := r
	changed[7] = "مشطوبة"
	if hash1 == gen.GenerateRecordHash(changed) {
		t.Errorf("Hash should change when status changes")
	}
}

func TestVerifyRecordHash(t *testing.T) {
	gen := NewGenerator()
	r := sampleRecord()

	hash := gen.GenerateRecordHash(r)

	if !gen.VerifyRecordHash(hash, r) {
		t.Errorf("VerifyRecordHash failed for correct data")
	}

	other := r
	other[5] = "اسم آخر"
	if gen.VerifyRecordHash(hash, other) {
		t.Errorf("VerifyRecordHash should fail for wrong trade name")
	}
}
