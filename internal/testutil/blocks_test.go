package testutil

import "testing"

func TestStereoCopies(t *testing.T) {
	left := []float64{1, 2}
	right := []float64{3, 4}
	b := Stereo(left, right)
	b[0][0] = 9
	if left[0] != 1 {
		t.Fatal("Stereo() aliases its input")
	}
	if len(b) != 2 || b[1][1] != 4 {
		t.Fatalf("Stereo() = %v", b)
	}
}

func TestRows(t *testing.T) {
	b := Rows(2, 3, 0.5)
	if len(b) != 2 || len(b[1]) != 3 || b[1][2] != 0.5 {
		t.Fatalf("Rows() = %v", b)
	}
}

func TestCloneAndSubBlock(t *testing.T) {
	b := [][]float64{{1, 2, 3}, {4, 5, 6}}
	c := CloneBlock(b)
	c[1][1] = 0
	if b[1][1] != 5 {
		t.Fatal("CloneBlock() aliases its input")
	}

	s := SubBlock(b, 1, 3)
	s[0][0] = 7
	if b[0][1] != 7 || len(s[1]) != 2 {
		t.Fatalf("SubBlock() should be a view, got %v", b)
	}

	RequireBlockIdentical(t, CloneBlock(b), b)
}

func TestRequireBounded(t *testing.T) {
	RequireBounded(t, []float64{-1, 0.5, 1}, 1)
}
