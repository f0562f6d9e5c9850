package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

type FileFinder interface {
	GetRasterFilesToProcess(opts *tiler.TilerOptions) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

var rasterExtensions = map[tiler.DatasetKind][]string{
	tiler.EarthMap:       {".png", ".jpg", ".jpeg", ".tif", ".tiff"},
	tiler.Population:     {".bin", ".f32", ".raw"},
	tiler.LightPollution: {".bin", ".f32", ".raw"},
	tiler.CountGrid:      {".bin", ".f32", ".raw"},
}

func (f *StandardFileFinder) GetRasterFilesToProcess(opts *tiler.TilerOptions) ([]string, error) {
	// If folder processing is not enabled then the raster is given by -input flag, otherwise look for rasters in -input
	// folder eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getRasterFilesFromInputFolder(opts)
}

func (f *StandardFileFinder) getRasterFilesFromInputFolder(opts *tiler.TilerOptions) ([]string, error) {
	var rasterFiles = make([]string, 0)
	extensions := rasterExtensions[opts.Dataset]

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !opts.Recursive && !os.SameFile(info, baseInfo) {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(info.Name()))
			for _, candidate := range extensions {
				if ext == candidate {
					rasterFiles = append(rasterFiles, path)
					break
				}
			}
			return nil
		},
	)

	return rasterFiles, err
}

// GetFilenameWithoutExtension strips folder and extension from a path.
func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}
