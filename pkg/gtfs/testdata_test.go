package gtfs

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string][]string) *bytes.Reader {
	t.Helper()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return bytes.NewReader(buf.Bytes())
}

func sampleFiles() map[string][]string {
	return map[string][]string{
		RoutesFile: {
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"6635,TL,049,Metrotown Station/Dunbar Loop/UBC,3",
			"6636,TL,2,Macdonald/Downtown,3",
			"SKY1,TL,EXPO,Expo Line,1",
			"BAD,TL,99,Broken,bus",
		},
		StopsFile: {
			"stop_id,stop_code,stop_name,stop_lat,stop_lon",
			"100,50001,Dunbar St @ W 41 Ave,49.2340,-123.1850",
			"101,50002,W 41 Ave @ Arbutus St,49.2345,-123.1550",
			"102,50003,Metrotown Station Bay 2,49.2258,-123.0035",
			"103,50004,Nowhere,not-a-number,-123.0",
		},
		TripsFile: {
			"route_id,service_id,trip_id,trip_headsign,direction_id,shape_id",
			"6635,WKDY,T1,49 Metrotown Station,0,SH1",
			"6635,WKDY,T2,49 Dunbar Loop,1,",
			"6635,WKDY,T3,49 Metrotown Station,7,SH1",
		},
		StopTimesFile: {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,23:50:00,23:50:00,100,1",
			"T1,24:05:00,,101,2",
			"T1,25:10:30,25:11:00,102,3",
			"T1,xx:10:30,25:11:00,102,4",
		},
		ShapesFile: {
			"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
			"SH1,49.2340,-123.1850,2",
			"SH1,49.2345,-123.1550,1",
		},
		CalendarFile: {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WKDY,1,1,1,1,1,0,0,20250101,20251231",
			"BROKEN,1,1,1,1,1,0,yes,20250101,20251231",
			"BACKWARDS,1,1,1,1,1,0,0,20251231,20250101",
		},
		CalendarDatesFile: {
			"service_id,date,exception_type",
			"WKDY,20250704,2",
			"WKDY,20250706,1",
			"WKDY,20250707,3",
		},
		DirectionNamesFile: {
			"\ufeffroute_name,direction_id,direction_name,direction_do",
			"049,0,To Metrotown,East",
			"049,1,To UBC,West",
		},
	}
}
