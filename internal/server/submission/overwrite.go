package submission

import (
	"context"
	"fmt"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/models"
)

// httpSchemes are the destination schemes acceptable for disk-only
// overwrite, which needs an HTTP-family tape endpoint on the far side.
var httpSchemes = map[string]bool{
	"http": true, "https": true, "dav": true, "davs": true,
}

// overwriteCodes maps each single modifier to its canonical code.
var overwriteCodes = []struct {
	set  func(*TransferParams) bool
	code models.OverwriteFlag
}{
	{func(p *TransferParams) bool { return p.Overwrite }, models.OverwriteAlways},
	{func(p *TransferParams) bool { return p.OverwriteOnRetry }, models.OverwriteOnRetry},
	{func(p *TransferParams) bool { return p.OverwriteWhenOnlyOnDisk }, models.OverwriteDiskOnly},
	{func(p *TransferParams) bool { return p.OverwriteHop }, models.OverwriteHop},
}

// ResolveOverwrite validates the combination of the four overwrite modifiers
// and encodes them into one canonical flag.
//
// The only permitted pairing is overwrite_hop with overwrite_when_only_on_disk,
// encoded as Q. D and Q need a positive archive timeout and HTTP-family
// destinations (only the final hop for multihop jobs). M and Q need a
// multihop job; with strict disabled that rule logs a warning instead of
// rejecting, for staged roll-out.
func ResolveOverwrite(ctx context.Context, p *TransferParams, jobType models.JobType, transfers []Transfer, strict bool, log logging.Logger) (models.OverwriteFlag, error) {
	flag := models.OverwriteNone
	count := 0
	for _, c := range overwriteCodes {
		if c.set(p) {
			flag = c.code
			count++
		}
	}
	switch {
	case count == 0:
		return models.OverwriteNone, nil
	case count == 2 && p.OverwriteHop && p.OverwriteWhenOnlyOnDisk:
		flag = models.OverwriteHopAndDiskOnly
	case count > 1:
		return "", fmt.Errorf("%w: incompatible combination of overwrite flags", ErrPolicyViolation)
	}

	if flag == models.OverwriteDiskOnly || flag == models.OverwriteHopAndDiskOnly {
		if p.ArchiveTimeout <= 0 {
			return "", fmt.Errorf("%w: overwrite-when-only-on-disk requires a positive archive_timeout", ErrPolicyViolation)
		}
		for _, t := range relevantDestinations(jobType, transfers) {
			if !httpSchemes[t.DestScheme] {
				return "", fmt.Errorf("%w: overwrite-when-only-on-disk requires an HTTP destination, got %q", ErrPolicyViolation, t.Destination)
			}
		}
	}

	if (flag == models.OverwriteHop || flag == models.OverwriteHopAndDiskOnly) && jobType != models.JobTypeMultihop {
		if strict {
			return "", fmt.Errorf("%w: overwrite_hop is only valid for multihop jobs", ErrPolicyViolation)
		}
		log.Warn(ctx, "overwrite_hop set on a non-multihop job", "flag", string(flag))
	}

	return flag, nil
}

// relevantDestinations returns the destinations whose scheme matters for
// disk-only overwrite: all of them normally, only the final hop for multihop.
func relevantDestinations(jobType models.JobType, transfers []Transfer) []Transfer {
	if jobType == models.JobTypeMultihop && len(transfers) > 0 {
		return transfers[len(transfers)-1:]
	}
	return transfers
}
