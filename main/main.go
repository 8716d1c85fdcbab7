package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/pkg/bufpool"
	"github.com/rawbytedev/wirechain/pkg/tlv"
)

func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	payload := make([]byte, 700)
	opts := wirechain.Options{Pool: bufpool.Default()}
	for i := 0; i < 10000; i++ {
		e := tlv.NewEncoder(256, opts)
		for typ := uint64(1); typ <= 8; typ++ {
			if _, err := e.AppendByteArrayBlock(typ, payload[:typ*80]); err != nil {
				log.Fatal(err)
			}
		}
		if _, err := e.AppendNonNegativeIntegerBlock(300, uint64(i)); err != nil {
			log.Fatal(err)
		}
		c, err := e.Finish()
		if err != nil {
			log.Fatal(err)
		}
		c.BuildGatherView()
		packet := c.Linearize()
		c.Release()

		parsed, err := tlv.Parse(packet, opts)
		if err != nil {
			log.Fatal(err)
		}
		parsed.Release()
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatal(err)
	}
	time.Sleep(5 * time.Minute)
}
