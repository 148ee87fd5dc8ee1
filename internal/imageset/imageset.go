// Package imageset loads a numbered batch of images as float grayscale grids
// and tracks the dynamic range of the whole batch.
package imageset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kozaktomas/ssim-matrix/internal/grid"
)

var ErrEmptyRange = errors.New("first image number is greater than last")

// Source describes which files make up the batch.
type Source struct {
	BasePath  string // prefix before the number, e.g. "images/animals_blur_"
	Extension string // without the leading dot
	First     int
	Last      int
}

// Count returns the number of images in the inclusive range.
func (s Source) Count() int {
	if s.First > s.Last {
		return 0
	}
	return s.Last - s.First + 1
}

// Path returns the file name for image number id.
func (s Source) Path(id int) string {
	return Path(s.BasePath, id, s.Extension)
}

// Path builds "<base><id>.<ext>".
func Path(base string, id int, ext string) string {
	return base + strconv.Itoa(id) + "." + strings.TrimPrefix(ext, ".")
}

// Set is a loaded batch. Images[i] belongs to IDs[i].
type Set struct {
	IDs    []int
	Images []grid.Grid
	Range  grid.Range
}

// Len returns the number of images in the set.
func (s *Set) Len() int { return len(s.Images) }

// LoadFunc is called after each image is loaded.
type LoadFunc func(id int, g grid.Grid)

// Load reads every image of src in ascending order. The first failure aborts
// the whole batch.
func Load(src Source, onLoad LoadFunc) (*Set, error) {
	if src.First > src.Last {
		return nil, fmt.Errorf("%w: %d > %d", ErrEmptyRange, src.First, src.Last)
	}

	set := &Set{
		IDs:    make([]int, 0, src.Count()),
		Images: make([]grid.Grid, 0, src.Count()),
	}
	for id := src.First; id <= src.Last; id++ {
		g, err := LoadGray(src.Path(id))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", id, err)
		}
		set.IDs = append(set.IDs, id)
		set.Images = append(set.Images, g)
		set.Range = set.Range.Include(g)

		if onLoad != nil {
			onLoad(id, g)
		}
	}
	return set, nil
}
