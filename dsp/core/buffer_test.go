package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestEnsureBlock(t *testing.T) {
	block := EnsureBlock(nil, 2, 16)
	if len(block) != 2 {
		t.Fatalf("channels = %d, want 2", len(block))
	}

	for ch, row := range block {
		if len(row) != 16 {
			t.Fatalf("row %d len = %d, want 16", ch, len(row))
		}
	}

	first := &block[0][0]
	block = EnsureBlock(block, 2, 8)
	if &block[0][0] != first {
		t.Fatal("EnsureBlock() reallocated a row that had enough capacity")
	}

	if len(EnsureBlock(block, 0, 8)) != 0 {
		t.Fatal("EnsureBlock() with zero channels should return an empty block")
	}
}

func TestCopyBlockAndZeroBlock(t *testing.T) {
	src := [][]float64{{1, 2, 3}, {4, 5, 6}}
	dst := [][]float64{make([]float64, 3), make([]float64, 3)}

	CopyBlock(dst, src, 2)

	if dst[0][0] != 1 || dst[0][1] != 2 || dst[0][2] != 0 {
		t.Fatalf("unexpected dst[0]: %#v", dst[0])
	}
	if dst[1][0] != 4 || dst[1][1] != 5 || dst[1][2] != 0 {
		t.Fatalf("unexpected dst[1]: %#v", dst[1])
	}

	ZeroBlock(dst)
	for ch := range dst {
		for i, v := range dst[ch] {
			if v != 0 {
				t.Fatalf("dst[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}
