package export

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/langchou/ridegazer/internal/models"
)

type rideSummaryRow struct {
	DirectoryToken int32    `parquet:"name=directory_token, type=INT32"`
	Token          int64    `parquet:"name=token, type=INT64"`
	Name           string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date           string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Time           string   `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8"`
	DurationS      *float64 `parquet:"name=duration_s, type=DOUBLE, repetitiontype=OPTIONAL"`
	DistanceKm     *float64 `parquet:"name=distance_km, type=DOUBLE, repetitiontype=OPTIONAL"`
	NumScenes      int64    `parquet:"name=num_scenes, type=INT64"`
	NumSamples     int64    `parquet:"name=num_samples, type=INT64"`
}

// MarshalParquet 骑行汇总写成 SNAPPY 压缩的 Parquet，空值列为 OPTIONAL
func MarshalParquet(summaries []models.RideSummary) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(rideSummaryRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range summaries {
		row := rideSummaryRow{
			DirectoryToken: int32(s.DirectoryToken),
			Token:          s.Token,
			Name:           s.Name,
			Date:           s.Date,
			Time:           s.Time,
			DurationS:      s.Duration,
			DistanceKm:     s.Distance,
			NumScenes:      int64(s.NumScenes),
			NumSamples:     int64(s.NumSamples),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
