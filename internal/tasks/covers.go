package tasks

import (
	"context"
	"net/http"
	"sync"

	"github.com/desertthunder/qbx/internal/formatter"
	"github.com/desertthunder/qbx/internal/models"
	"golang.org/x/time/rate"
)

// CoverOpts contains configuration for cover downloads.
type CoverOpts struct {
	Dir        string       // Target directory
	Size       string       // Image size: small, thumbnail, large
	NumWorkers int          // Concurrent workers (default: 4)
	RateLimit  float64      // Downloads per second (default: 5)
	Client     *http.Client // Defaults to http.DefaultClient
}

// CoverResult is the outcome for one album.
type CoverResult struct {
	Album      models.Album
	Path       string
	Downloaded bool // false when the file already existed
	Err        error
}

// CoverReport holds results in album order with totals.
type CoverReport struct {
	Results    []CoverResult
	Downloaded int
	Skipped    int
	Failed     int
}

type coverJob struct {
	index int
	album models.Album
}

type coverOutcome struct {
	index int
	CoverResult
}

// DownloadCovers saves the cover of each distinct album into opts.Dir with a rate-limited worker pool.
//
// Failures are reported per album and never stop the others. Cancelling ctx stops queueing new albums;
// those never attempted carry the context error.
func DownloadCovers(
	ctx context.Context,
	albums []models.Album,
	opts CoverOpts,
	prog chan<- ProgressUpdate,
) *CoverReport {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	seen := make(map[string]bool, len(albums))
	unique := make([]models.Album, 0, len(albums))
	for _, a := range albums {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		unique = append(unique, a)
	}

	report := &CoverReport{Results: make([]CoverResult, len(unique))}
	finished := make([]bool, len(unique))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan coverJob, len(unique))
	results := make(chan coverOutcome, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go coverWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, a := range unique {
			select {
			case <-ctx.Done():
				return
			case jobs <- coverJob{index: i, album: a}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for out := range results {
		completed++
		res := out.CoverResult
		report.Results[out.index] = res
		finished[out.index] = true

		switch {
		case res.Err != nil:
			report.Failed++
			sendProgress(prog, coverFailedUpdate(completed, len(unique), res))
		case res.Downloaded:
			report.Downloaded++
			sendProgress(prog, coverCompletedUpdate(completed, len(unique), res))
		default:
			report.Skipped++
			sendProgress(prog, coverCompletedUpdate(completed, len(unique), res))
		}
	}

	for i, ok := range finished {
		if !ok {
			report.Results[i] = CoverResult{Album: unique[i], Err: ctx.Err()}
			report.Failed++
		}
	}
	return report
}

func coverWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan coverJob,
	results chan<- coverOutcome,
	opts CoverOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := CoverResult{Album: job.album}
		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
		} else {
			res.Path, res.Downloaded, res.Err = formatter.SaveCover(ctx, opts.Client, job.album, opts.Dir, opts.Size)
		}
		results <- coverOutcome{index: job.index, CoverResult: res}
	}
}
