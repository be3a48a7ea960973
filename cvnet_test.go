package yolostream

import (
	"errors"
	"testing"

	"github.com/overlaycv/yolostream/postprocess"
	"gocv.io/x/gocv"
)

func TestMatDims(t *testing.T) {

	tests := []struct {
		size []int
		rows int
		cols int
		err  bool
	}{
		{[]int{507, 85}, 507, 85, false},
		{[]int{1, 507, 85}, 507, 85, false},
		{[]int{1, 3, 13, 85}, 39, 85, false},
		{[]int{85}, 0, 0, true},
	}

	for _, tc := range tests {

		rows, cols, err := matDims(tc.size)

		if tc.err {
			if !errors.Is(err, postprocess.ErrTensorShape) {
				t.Errorf("%v: expected ErrTensorShape, got %v", tc.size, err)
			}
			continue
		}

		if err != nil || rows != tc.rows || cols != tc.cols {
			t.Errorf("%v: expected %dx%d, got %dx%d err %v",
				tc.size, tc.rows, tc.cols, rows, cols, err)
		}
	}
}

func TestMatToTensorCollapsesLeadingDims(t *testing.T) {

	m := gocv.NewMatWithSizes([]int{1, 2, 7}, gocv.MatTypeCV32F)
	defer m.Close()

	data, err := m.DataPtrFloat32()

	if err != nil {
		t.Fatalf("DataPtrFloat32 failed: %v", err)
	}

	for i := range data {
		data[i] = float32(i)
	}

	tensor, err := matToTensor(m)

	if err != nil {
		t.Fatalf("matToTensor failed: %v", err)
	}

	if tensor.Rows() != 2 || tensor.Cols() != 7 {
		t.Fatalf("expected 2x7 tensor, got %dx%d", tensor.Rows(), tensor.Cols())
	}

	row := tensor.Row(1)

	if row[0] != 7 || row[6] != 13 {
		t.Errorf("unexpected second row %v", row)
	}
}

func TestMatToTensorEmpty(t *testing.T) {

	m := gocv.NewMat()
	defer m.Close()

	tensor, err := matToTensor(m)

	if err != nil {
		t.Fatalf("matToTensor failed: %v", err)
	}

	if tensor.Rows() != 0 {
		t.Errorf("expected no rows, got %d", tensor.Rows())
	}
}
