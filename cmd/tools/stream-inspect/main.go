package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	vsync "github.com/annel0/voxelfield/internal/sync"
	"github.com/annel0/voxelfield/internal/upload"
	"github.com/annel0/voxelfield/internal/voxel"
)

func main() {
	var (
		input    = flag.String("in", "", "Captured upload stream")
		zstd     = flag.Bool("zstd", false, "Frames are zstd-compressed")
		checksum = flag.String("checksum", "", "Expected world checksum (hex) to verify the replayed buffer")
	)
	flag.Parse()

	if *input == "" {
		log.Fatalf("❌ Не указан файл потока (-in)")
	}
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия потока: %v", err)
	}
	defer f.Close()

	codec, err := vsync.NewCodec(*zstd)
	if err != nil {
		log.Fatalf("❌ Ошибка создания кодека: %v", err)
	}

	mirror := upload.NewMirror()
	stats, err := upload.ReadStream(f, codec, mirror)
	if err != nil {
		log.Fatalf("❌ Ошибка чтения потока: %v", err)
	}

	cells := mirror.Cells()
	solid := 0
	for _, v := range cells {
		if voxel.IsSolid(v) {
			solid++
		}
	}

	fmt.Printf("Кадров:          %d (полных %d, диапазонов %d)\n", stats.Frames, stats.FullFrames, stats.RangeFrames)
	fmt.Printf("Значений:        %s\n", humanize.Comma(int64(stats.Values)))
	fmt.Printf("Размер потока:   %s\n", humanize.IBytes(uint64(stats.Bytes)))
	fmt.Printf("Буфер:           %s вокселей, твёрдых %s\n", humanize.Comma(int64(len(cells))), humanize.Comma(int64(solid)))
	sum := voxel.ChecksumCells(cells)
	fmt.Printf("Контрольная сумма: %016x\n", sum)

	if *checksum == "" {
		return
	}
	want, err := strconv.ParseUint(*checksum, 16, 64)
	if err != nil {
		log.Fatalf("❌ Некорректная контрольная сумма %q: %v", *checksum, err)
	}
	if want != sum {
		fmt.Println("❌ Буфер не совпадает с миром")
		os.Exit(1)
	}
	fmt.Println("✅ Буфер совпадает с миром")
}
