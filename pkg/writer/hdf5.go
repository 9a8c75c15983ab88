package writer

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

type EventDataHDF5 struct {
	evt_number int64
	index      int64
	timestamp  uint64
	error      int32
}

type RunInfoHDF5 struct {
	run_number  int32
	start_event int64
}

type SegmentHDF5 struct {
	evt_number int64
	segment    int32
	beta       float64
	aoq        float64
	z          float64
	delta      float64
	brho       float64
	drift_aoq  float64
	drift_z    float64
	corr_aoq   float64
	corr_z     float64
}

type TOFHDF5 struct {
	evt_number int64
	tof_index  int32
	tof        float64
	beta       float64
}

type TrackHDF5 struct {
	evt_number  int64
	focal_plane int32
	x           float64
	a           float64
	y           float64
	b           float64
}

type PlasticHDF5 struct {
	evt_number  int64
	focal_plane int32
	dT          float64
	logQ        float64
	multihit_l  int32
	multihit_r  int32
}

type MaskHDF5 struct {
	evt_number int64
	coarse0    int64
	coarse1    int64
	fine       int64
}

// table is an extendible dataset together with the number of rows
// already written to it.
type table struct {
	dataset *hdf5.Dataset
	rows    int
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*table, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, &ErrCreateTable{TableName: name, Err: err}
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return &table{dataset: dset}, nil
}

func writeEntryToTable[T any](t *table, data T) error {
	array := []T{data}
	return writeArrayToTable(t, &array)
}

// writeArrayToTable appends data at the end of the table. The slice must
// be fully allocated, HDF5 reads it through its backing array.
func writeArrayToTable[T any](t *table, data *[]T) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(t.rows)
	newsize := []uint{rowsInFile + length}
	if err := t.dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := t.dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows: %w", err)
	}

	if err := t.dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing rows: %w", err)
	}
	t.rows += int(length)
	return nil
}
