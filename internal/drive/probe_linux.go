//go:build linux

package drive

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	"golang.org/x/sys/unix"
)

// Filesystem magics for Statfs. Only the ones a music drive plausibly
// carries are named; anything else is reported by udev's ID_FS_TYPE or as
// a raw magic number.
const (
	ntfsMagic  = 0x5346544e
	exfatMagic = 0x2011bab0
)

func probeDevice(root string) (deviceInfo, error) {
	var info deviceInfo

	var stfs unix.Statfs_t
	if err := unix.Statfs(root, &stfs); err != nil {
		return deviceInfo{}, fmt.Errorf("statfs %s: %w", root, err)
	}
	// For vfat the reported block size is the allocation unit.
	info.ClusterBytes = int64(stfs.Bsize)
	info.FilesystemType = filesystemFromMagic(int64(stfs.Type))

	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return info, nil
	}
	props := udevProperties(uint64(st.Dev))
	if fsType := props["ID_FS_TYPE"]; fsType != "" {
		info.FilesystemType = fsType
	}
	if scheme := props["ID_PART_ENTRY_SCHEME"]; scheme != "" {
		info.PartitionScheme = scheme
	} else if scheme := props["ID_PART_TABLE_TYPE"]; scheme != "" {
		info.PartitionScheme = scheme
	}
	return info, nil
}

func filesystemFromMagic(magic int64) string {
	switch magic {
	case unix.MSDOS_SUPER_MAGIC:
		return "vfat"
	case exfatMagic:
		return "exfat"
	case ntfsMagic:
		return "ntfs"
	case unix.EXT4_SUPER_MAGIC:
		return "ext4"
	case unix.XFS_SUPER_MAGIC:
		return "xfs"
	case unix.BTRFS_SUPER_MAGIC:
		return "btrfs"
	case unix.TMPFS_MAGIC:
		return "tmpfs"
	default:
		return ""
	}
}

// udevProperties resolves the block device for dev and merges its sysfs
// uevent environment with the udev database record. Best effort: an empty
// map means udev had nothing for us.
func udevProperties(dev uint64) map[string]string {
	major := unix.Major(dev)
	minor := unix.Minor(dev)
	props := make(map[string]string)

	for k, v := range crawlBlockDevice(major, minor) {
		props[k] = v
	}

	// The udev daemon's database carries the probed properties (ID_FS_TYPE,
	// partition table) that sysfs uevent files lack.
	path := fmt.Sprintf("/run/udev/data/b%d:%d", major, minor)
	f, err := os.Open(path)
	if err != nil {
		return props
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "E:") {
			continue
		}
		key, value, ok := strings.Cut(line[2:], "=")
		if !ok {
			continue
		}
		props[key] = value
	}
	return props
}

// crawlBlockDevice walks the existing udev device set for the partition
// with the given device numbers.
func crawlBlockDevice(major, minor uint32) map[string]string {
	matcher := &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{Env: map[string]string{"DEVTYPE": "partition|disk"}},
		},
	}
	if err := matcher.Compile(); err != nil {
		return nil
	}

	queue := make(chan crawler.Device)
	errs := make(chan error)
	quit := crawler.ExistingDevices(queue, errs, matcher)

	// The walker only polls quit between sysfs entries and blocks sending
	// on queue, so every exit path must signal it and drain until it
	// closes the channel.
	defer func() {
		select {
		case quit <- struct{}{}:
		default:
		}
		go drainCrawler(queue, errs)
	}()

	wantMajor := fmt.Sprintf("%d", major)
	wantMinor := fmt.Sprintf("%d", minor)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case device, ok := <-queue:
			if !ok {
				return nil
			}
			if device.Env["MAJOR"] == wantMajor && device.Env["MINOR"] == wantMinor {
				return device.Env
			}
		case <-errs:
			return nil
		case <-deadline:
			return nil
		}
	}
}

func drainCrawler(queue chan crawler.Device, errs chan error) {
	for {
		select {
		case _, ok := <-queue:
			if !ok {
				return
			}
		case <-errs:
		}
	}
}
