package archive

import (
	"strconv"
	"strings"
	"time"
)

// Persistence suffixes of ring-buffered device logs.
const (
	suffixVolatile   = "_v" // kept in RAM
	suffixPersistent = "_p" // kept on flash
	suffixOverview   = "_ov"
)

// ParseRingName splits a device log file stem into the name of its ring
// buffer group and its slot index. Unnumbered files have index -1.
//
//	adm_LoggerAdm_2_p   -> adm_LoggerAdm_p, 2
//	contr_Hwa_4         -> contr_Hwa, 4
//	contr_FtcManager_ov -> contr_FtcManager, -1
func ParseRingName(stem string) (group string, index int) {
	s, storage := splitStorage(stem)

	index = -1
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		if n, err := strconv.ParseUint(s[i+1:], 10, 32); err == nil {
			index = int(n)
			s = s[:i]
		}
	}

	// Overview logs belong to the regular log of the same name.
	s = strings.TrimSuffix(s, suffixOverview)

	return s + storage, index
}

// IsOverview reports whether stem names the overview log of a ring buffer
// group. Overview logs hold the oldest entries of the group.
func IsOverview(stem string) bool {
	s, _ := splitStorage(stem)
	return strings.HasSuffix(s, suffixOverview)
}

func splitStorage(stem string) (rest, storage string) {
	switch {
	case strings.HasSuffix(stem, suffixVolatile):
		storage = suffixVolatile
	case strings.HasSuffix(stem, suffixPersistent):
		storage = suffixPersistent
	}
	return stem[:len(stem)-len(storage)], storage
}

// GroupName returns the ring buffer group a device log file belongs to.
func GroupName(stem string) string {
	group, _ := ParseRingName(stem)
	return group
}

// ClientName is the decoded file stem of a client log,
// "Application_PID_channel_datetime".
type ClientName struct {
	Application string
	ProcessID   uint32
	Channel     string
	Time        time.Time
}

const clientTimeLayout = "2006-01-02-15-04-05"

// ParseClientName decodes a client log stem. Segments are counted from the
// right so applications may contain underscores. With too few segments the
// whole stem is used as the channel.
func ParseClientName(stem string) ClientName {
	parts := rsplitN(stem, "_", 4)

	var c ClientName
	c.Time = parseClientTime(parts[0])
	if len(parts) < 2 {
		c.Channel = stem
		return c
	}
	c.Channel = parts[1]
	if len(parts) > 2 {
		if pid, err := strconv.ParseUint(parts[2], 10, 32); err == nil {
			c.ProcessID = uint32(pid)
		}
	}
	if len(parts) > 3 {
		c.Application = parts[3]
	}
	return c
}

// parseClientTime parses "2021-03-09-08-07-25-8527", the last group being
// the fraction of the second. Invalid input yields the zero time.
func parseClientTime(s string) time.Time {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return time.Time{}
	}
	t, err := time.ParseInLocation(clientTimeLayout, s[:i], time.UTC)
	if err != nil {
		return time.Time{}
	}
	frac := s[i+1:]
	if frac == "" || len(frac) > 9 {
		return time.Time{}
	}
	ns, err := strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 32)
	if err != nil {
		return time.Time{}
	}
	return t.Add(time.Duration(ns))
}

// rsplitN splits s around sep from the right into at most n parts, the
// rightmost part first.
func rsplitN(s, sep string, n int) []string {
	var parts []string
	for len(parts) < n-1 {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			break
		}
		parts = append(parts, s[i+len(sep):])
		s = s[:i]
	}
	return append(parts, s)
}
