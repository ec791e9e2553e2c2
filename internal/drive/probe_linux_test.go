//go:build linux

package drive

import (
	"errors"
	"testing"
	"time"

	"github.com/pilebones/go-udev/crawler"
)

// The crawler goroutine sends on an unbuffered channel; a consumer that
// stops receiving early must drain it to completion or it leaks.
func TestDrainCrawlerUnblocksWalker(t *testing.T) {
	queue := make(chan crawler.Device)
	errs := make(chan error)
	done := make(chan struct{})

	go func() {
		queue <- crawler.Device{KObj: "/sys/block/sdz/sdz1"}
		errs <- errors.New("abort")
		close(queue)
		close(done)
	}()

	go drainCrawler(queue, errs)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("walker still blocked after drain")
	}
}
