package filesystem

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"golang.org/x/sync/semaphore"
)

// sizeUnits maps upper-cased unit suffixes to their byte multipliers.
// Bare and "B"-suffixed decimal units use powers of 1000, "iB" units powers of 1024.
var sizeUnits = map[string]float64{
	"":    1,
	"B":   1,
	"K":   1e3,
	"KB":  1e3,
	"KIB": 1 << 10,
	"M":   1e6,
	"MB":  1e6,
	"MIB": 1 << 20,
	"G":   1e9,
	"GB":  1e9,
	"GIB": 1 << 30,
	"T":   1e12,
	"TB":  1e12,
	"TIB": 1 << 40,
}

// ParseSize parses a size string (e.g., "500KB", "10MB", "1GiB", "1.5G") to bytes.
// Units are case-insensitive; an unknown unit or malformed number is an error.
func ParseSize(sizeStr string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(sizeStr))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	pos := strings.IndexFunc(s, unicode.IsLetter)
	numberPart, unitPart := s, ""
	if pos >= 0 {
		numberPart, unitPart = s[:pos], s[pos:]
	}
	numberPart = strings.TrimSpace(numberPart)

	number, err := strconv.ParseFloat(numberPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number %q", numberPart)
	}
	if number < 0 {
		return 0, fmt.Errorf("negative size %q", sizeStr)
	}

	multiplier, ok := sizeUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	// Saturate rather than wrap on overflow
	bytes := number * multiplier
	if bytes >= math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(bytes), nil
}

// DirSize sums the sizes of all regular files below dir.
// Symlinks are not followed and unreadable entries count as zero.
func DirSize(dir string) int64 {
	return DirSizeContext(context.Background(), dir)
}

// DirSizeContext is DirSize with cancellation. A cancelled walk returns the
// partial sum accumulated so far.
func DirSizeContext(ctx context.Context, dir string) int64 {
	var total atomic.Int64
	sem := semaphore.NewWeighted(int64(sizeWorkers()))

	var wg sync.WaitGroup
	var visit func(path string)
	visit = func(path string) {
		defer wg.Done()

		// Hold the semaphore only during ReadDir so nested goroutines never deadlock
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		entries, err := os.ReadDir(path)
		sem.Release(1)
		if err != nil {
			return
		}

		for _, e := range entries {
			if ctx.Err() != nil {
				return
			}
			child := filepath.Join(path, e.Name())
			switch {
			case e.Type()&os.ModeSymlink != 0:
				continue
			case e.IsDir():
				wg.Add(1)
				go visit(child)
			case e.Type().IsRegular():
				if info, err := e.Info(); err == nil {
					total.Add(info.Size())
				}
			}
		}
	}

	wg.Add(1)
	visit(dir)
	wg.Wait()

	return total.Load()
}

func sizeWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n > 16 {
		n = 16
	}
	if n < 1 {
		n = 1
	}
	return n
}
