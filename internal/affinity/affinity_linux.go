//go:build linux

package affinity

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// linuxPinner pins via sched_setaffinity, the same call ehrlich-b/go-ublk
// uses from its ioLoop after runtime.LockOSThread.
type linuxPinner struct{}

// NewPinner returns the Linux sched_setaffinity-backed Pinner.
func NewPinner() Pinner { return linuxPinner{} }

func (linuxPinner) Pin(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}

// DetectTopology reads /sys/devices/system/cpu/cpuN/topology/thread_siblings_list
// for every online CPU and groups CPUs that share a physical core.
func DetectTopology() (Topology, error) {
	online, err := onlineCPUs()
	if err != nil {
		return Topology{}, err
	}

	seen := make(map[int]bool, len(online))
	var groups [][]int
	for _, cpu := range online {
		if seen[cpu] {
			continue
		}
		siblings, err := threadSiblings(cpu)
		if err != nil || len(siblings) == 0 {
			siblings = []int{cpu}
		}
		for _, s := range siblings {
			seen[s] = true
		}
		groups = append(groups, siblings)
	}
	return Topology{Groups: groups}, nil
}

func onlineCPUs() ([]int, error) {
	data, err := os.ReadFile("/sys/devices/system/cpu/online")
	if err != nil {
		return nil, err
	}
	return parseCPUList(strings.TrimSpace(string(data)))
}

func threadSiblings(cpu int) ([]int, error) {
	path := filepath.Join("/sys/devices/system/cpu", fmt.Sprintf("cpu%d", cpu), "topology", "thread_siblings_list")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	return parseCPUList(strings.TrimSpace(scanner.Text()))
}

// parseCPUList parses Linux's cpulist format: comma-separated ids and
// id-id ranges, e.g. "0-3,8".
func parseCPUList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err := strconv.Atoi(lo)
			if err != nil {
				return nil, err
			}
			hiN, err := strconv.Atoi(hi)
			if err != nil {
				return nil, err
			}
			for i := loN; i <= hiN; i++ {
				out = append(out, i)
			}
		} else {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}
