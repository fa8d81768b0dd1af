package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opendash/cansim/internal/geo"
	"github.com/opendash/cansim/internal/perf"
	"github.com/opendash/cansim/pkg/telemetry"
)

// RecordingExport is the root JSON structure written on session end.
type RecordingExport struct {
	Profile     string               `json:"profile"`
	VehicleID   string               `json:"vehicleId"`
	StartTime   time.Time            `json:"startTime"`
	EndTime     time.Time            `json:"endTime"`
	TickRate    float64              `json:"tickRate"`
	TrackWKT    string               `json:"trackWkt,omitempty"`
	Snapshots   []telemetry.Snapshot `json:"snapshots"`
	PerfSamples []perf.State         `json:"perfSamples,omitempty"`
}

// export writes the buffered session to a JSON file, gzipped when configured.
// Caller holds the lock.
func (b *Backend) export() error {
	recording := b.buildExport()

	profile := strings.ReplaceAll(b.session.Profile, " ", "_")
	profile = strings.ReplaceAll(profile, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", profile, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", profile, timestamp)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, recording); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, recording); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = telemetry.UploadMetadata{
		Profile:     b.session.Profile,
		VehicleID:   b.session.VehicleID,
		DurationSec: b.duration().Seconds(),
		Snapshots:   len(b.snapshots),
	}
	return nil
}

func (b *Backend) buildExport() RecordingExport {
	recording := RecordingExport{
		Profile:     b.session.Profile,
		VehicleID:   b.session.VehicleID,
		StartTime:   b.session.StartTime,
		TickRate:    b.session.TickRate,
		Snapshots:   b.snapshots,
		PerfSamples: b.perfSamples,
	}

	if n := len(b.snapshots); n > 0 {
		recording.EndTime = b.snapshots[n-1].Time
	}

	// render the driven track, skipping repeated positions from standstill
	waypoints := make([]geo.Waypoint, 0, len(b.snapshots))
	for _, s := range b.snapshots {
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		if n := len(waypoints); n > 0 &&
			waypoints[n-1].Lat == s.Latitude && waypoints[n-1].Lon == s.Longitude {
			continue
		}
		waypoints = append(waypoints, geo.Waypoint{Lat: s.Latitude, Lon: s.Longitude})
	}
	if wkt, err := geo.TrackWKT(waypoints); err == nil {
		recording.TrackWKT = wkt
	}

	return recording
}

func writeJSON(path string, data RecordingExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data RecordingExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
