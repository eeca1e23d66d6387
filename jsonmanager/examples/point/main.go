package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/leeforge/jsonmanager/json"
	"github.com/leeforge/jsonmanager/jsonmanager"
	"github.com/leeforge/jsonmanager/logging"
	"github.com/leeforge/jsonmanager/storage"
)

type Point struct {
	X int
	Y int
}

func (p *Point) GenerateJSON(buf *strings.Builder) (string, error) {
	buf.WriteString(`{"x":`)
	buf.WriteString(strconv.Itoa(p.X))
	buf.WriteString(`,"y":`)
	buf.WriteString(strconv.Itoa(p.Y))
	buf.WriteString(`}`)
	return buf.String(), nil
}

func buildPoint(v json.Value) (Point, error) {
	var p Point
	for key, dst := range map[string]*int{"x": &p.X, "y": &p.Y} {
		field, err := v.Get(key)
		if err != nil {
			return Point{}, err
		}
		n, err := field.Int()
		if err != nil {
			return Point{}, err
		}
		*dst = int(n)
	}
	return p, nil
}

type Route struct {
	Name   string  `json:"name" validate:"required"`
	Speed  int     `json:"speed" default:"50" validate:"gte=1"`
	Points []Point `json:"points" validate:"min=2"`
}

func main() {
	dir, err := os.MkdirTemp("", "jsonmanager-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cfg := logging.DefaultConfig()
	cfg.Level = "debug"
	logging.Init(cfg)
	defer logging.Sync()

	store, err := storage.NewLocalProvider(dir)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== Point generator and builder ===")

	// 1. 生成文本
	p := &Point{X: 3, Y: 4}
	exporter := jsonmanager.NewExporter(p, jsonmanager.WithStorage(store))
	text, err := exporter.GenerateJSON()
	if err != nil {
		log.Fatal("generate failed:", err)
	}
	fmt.Printf("1. generated: %s\n", text)

	// 2. 写入文件，路径会被记住
	if err := exporter.ExportToFile("point.json"); err != nil {
		log.Fatal("export failed:", err)
	}
	p.X = 30
	if err := exporter.ExportToFile(""); err != nil {
		log.Fatal("export failed:", err)
	}
	fmt.Printf("2. exported twice to %s\n", exporter.Path())

	// 3. 读回对象
	importer := jsonmanager.NewImporter[Point](jsonmanager.BuilderFunc[Point](buildPoint), jsonmanager.WithStorage(store))
	got, err := importer.ImportFromFile("point.json")
	if err != nil {
		log.Fatal("import failed:", err)
	}
	fmt.Printf("3. imported: %+v\n", got)

	// 4. 错误分类
	_, err = importer.BuildObject("{not valid json")
	fmt.Printf("4. malformed text: %v\n", err)
	_, err = importer.BuildObject(`{"unexpected":1}`)
	fmt.Printf("   wrong shape:    %v\n", err)

	fmt.Println("\n=== Struct exporter and importer ===")

	// 5. 结构体导出，零值字段使用 default 标签
	route := &Route{Name: "loop", Points: []Point{{0, 0}, {3, 4}}}
	if err := jsonmanager.NewStructExporter(route, "  ", jsonmanager.WithStorage(store)).ExportToFile("route.json"); err != nil {
		log.Fatal("export failed:", err)
	}
	saved, err := store.ReadText("route.json")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("5. route.json:\n%s\n", saved)
	logging.LogLongText(logging.Named("example"), saved, 40)

	// 6. 批量导入，跳过失败的文件
	routes := jsonmanager.NewStructImporter[Route](true, jsonmanager.WithStorage(store))
	imported, err := jsonmanager.ImportAll(routes, []string{"route.json", "missing.json"}, jsonmanager.SkipOnError)
	fmt.Printf("6. imported %d route(s), errors: %v\n", len(imported), err)
}
