package output

import (
	"github.com/jmbenlloch/go-hdf5"

	digitizer "github.com/jmbenlloch/digitizer_go/pkg"
)

// Row layouts. Field names become the HDF5 column names.
type HitHDF5 struct {
	energy     float64
	x          float64
	y          float64
	z          float64
	time       float64
	track_id   int32
	element_id int32
}

type TrackHDF5 struct {
	evt_number uint32
	track_id   int32
	pdg        int32
	charge     float64
	x          float64
	y          float64
	z          float64
	px         float64
	py         float64
	pz         float64
}

type EventDataHDF5 struct {
	evt_number uint32
	n_deposits int32
	n_hits     int32
}

type RunInfoHDF5 struct {
	run_number int32
	seed       int64
	efficiency float64
	threshold  float64
	resolution float64
}

type ElementHDF5 struct {
	element_id   int32
	class        int32
	radius       float64
	half_length  float64
	z            float64
	inner_radius float64
	outer_radius float64
}

func hitRows(hits []digitizer.Hit) []HitHDF5 {
	// The array MUST be allocated at creation, if not, HDF5 will panic
	rows := make([]HitHDF5, len(hits))
	for i, hit := range hits {
		rows[i] = HitHDF5{
			energy:     hit.Edep,
			x:          hit.Position.X,
			y:          hit.Position.Y,
			z:          hit.Position.Z,
			time:       hit.Time,
			track_id:   hit.TrackID,
			element_id: hit.ElementID,
		}
	}
	return rows
}

func trackRows(eventID uint32, primaries []digitizer.Primary) []TrackHDF5 {
	rows := make([]TrackHDF5, len(primaries))
	for i, p := range primaries {
		rows[i] = TrackHDF5{
			evt_number: eventID,
			track_id:   p.TrackID,
			pdg:        p.PDG,
			charge:     p.Charge,
			x:          p.Vertex.X,
			y:          p.Vertex.Y,
			z:          p.Vertex.Z,
			px:         p.Momentum.X,
			py:         p.Momentum.Y,
			pz:         p.Momentum.Z,
		}
	}
	return rows
}

func elementRows(geometry *digitizer.Geometry) []ElementHDF5 {
	elements := geometry.Elements()
	rows := make([]ElementHDF5, len(elements))
	for i, e := range elements {
		rows[i] = ElementHDF5{
			element_id:   e.ID,
			class:        int32(e.Class),
			radius:       e.Radius,
			half_length:  e.HalfLength,
			z:            e.Z,
			inner_radius: e.InnerRadius,
			outer_radius: e.OuterRadius,
		}
	}
	return rows
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &digitizer.ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &digitizer.ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
	}
	if compressionLevel > 0 {
		if err := plist.SetDeflate(compressionLevel); err != nil {
			return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
		}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
	}
	defer dtype.Close()

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &digitizer.ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, name string, data T, rowsInTable int) error {
	array := []T{data}
	return writeArrayToTable(dataset, name, &array, rowsInTable)
}

// writeArrayToTable appends data after the first rowsInTable rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, name string, data *[]T, rowsInTable int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return &digitizer.ErrWriteTable{TableName: name, Err: err}
	}
	defer dataspace.Close()

	// extend
	rows := uint(rowsInTable)
	newsize := []uint{rows + length}
	if err := dataset.Resize(newsize); err != nil {
		return &digitizer.ErrWriteTable{TableName: name, Err: err}
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rows}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return &digitizer.ErrWriteTable{TableName: name, Err: err}
	}

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return &digitizer.ErrWriteTable{TableName: name, Err: err}
	}
	return nil
}
