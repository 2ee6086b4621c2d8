package telemetry

import "github.com/langchou/ridegazer/internal/models"

type sampleKey struct {
	scene  int64
	sample int64
}

// Load 将各分区的关系表连接为 ride → scene → sample → sensor 树。
// 切片下标即分区序号，写入 Ride.DirectoryToken。孤立行直接丢弃，没有场景的骑行不输出。
func Load(partitions []*models.PartitionTables) []*models.Ride {
	var rides []*models.Ride
	for i, p := range partitions {
		if p == nil {
			continue
		}
		rides = append(rides, LoadPartition(i, p)...)
	}
	return rides
}

// LoadPartition 连接单个分区
func LoadPartition(index int, p *models.PartitionTables) []*models.Ride {
	scenesByRide := make(map[int64][]models.SceneRow)
	for _, s := range p.Scenes {
		scenesByRide[s.RideToken] = append(scenesByRide[s.RideToken], s)
	}

	samplesByScene := make(map[int64][]models.SampleRow)
	for _, s := range p.Samples {
		samplesByScene[s.SceneToken] = append(samplesByScene[s.SceneToken], s)
	}

	sensorsBySample := make(map[sampleKey][]models.SensorRow)
	for _, s := range p.Sensors {
		k := sampleKey{scene: s.SceneToken, sample: s.SampleToken}
		sensorsBySample[k] = append(sensorsBySample[k], s)
	}

	gpsByToken := make(map[int64][]models.GPSRow)
	for _, g := range p.GPS {
		gpsByToken[g.Token] = append(gpsByToken[g.Token], g)
	}

	rides := make([]*models.Ride, 0, len(p.Rides))
	for _, rr := range p.Rides {
		sceneRows := scenesByRide[rr.Token]
		if len(sceneRows) == 0 {
			continue
		}

		ride := &models.Ride{
			Token:          rr.Token,
			Name:           rr.Name,
			DirectoryToken: index,
			Scenes:         make([]*models.Scene, 0, len(sceneRows)),
		}
		for _, sr := range sceneRows {
			scene := &models.Scene{
				Token:     sr.Token,
				RideToken: sr.RideToken,
				DirName:   sr.DirName,
			}
			for _, smp := range samplesByScene[sr.Token] {
				sample := &models.Sample{
					Token:           smp.Token,
					SceneToken:      smp.SceneToken,
					Timestamp:       smp.Timestamp,
					PrevSampleToken: copyInt(smp.PrevSampleToken),
				}
				for _, sensor := range sensorsBySample[sampleKey{scene: sr.Token, sample: smp.Token}] {
					sample.Sensors = append(sample.Sensors, joinGPS(sensor, gpsByToken[sensor.Token])...)
				}
				scene.Samples = append(scene.Samples, sample)
			}
			ride.Scenes = append(ride.Scenes, scene)
		}
		rides = append(rides, ride)
	}
	return rides
}

// joinGPS 左连接：无匹配时保留一条不含定位的读数，多条匹配时每条各生成一条读数
func joinGPS(s models.SensorRow, fixes []models.GPSRow) []*models.SensorReading {
	base := func() *models.SensorReading {
		return &models.SensorReading{
			Token:                s.Token,
			Timestamp:            s.Timestamp,
			SampleToken:          s.SampleToken,
			SceneToken:           s.SceneToken,
			MeasurementType:      s.MeasurementType,
			CalibratedSensorName: s.CalibratedSensorName,
			SensorDataType:       s.SensorDataType,
		}
	}

	if len(fixes) == 0 {
		return []*models.SensorReading{base()}
	}

	out := make([]*models.SensorReading, 0, len(fixes))
	for _, g := range fixes {
		r := base()
		r.Lat = copyFloat(g.Lat)
		r.Lon = copyFloat(g.Lon)
		r.Hgt = copyFloat(g.Hgt)
		r.LatStd = copyFloat(g.LatStd)
		r.LonStd = copyFloat(g.LonStd)
		r.HgtStd = copyFloat(g.HgtStd)
		out = append(out, r)
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
