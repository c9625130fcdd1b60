//go:build tinygo

package main

import (
	"fmt"
	"machine"
	"time"

	"github.com/hubertat/opbox"
	"github.com/hubertat/opbox/pico"
)

const pollInterval = 20 * time.Millisecond

func main() {
	box, err := pico.Open(pico.PicoType1())
	if err != nil {
		fmt.Println("setup failed: ", err.Error())
		panic(err)
	}

	fmt.Println("setup OK!")
	if err = box.SetSegmentDisplay(opbox.Show(opbox.GlyphOne)); err != nil {
		fmt.Println("display failed: ", err.Error())
		panic(err)
	}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	bindings := pico.NewBindings(box, pico.ToggleEach()...)
	for {
		if err := bindings.Sync(); err != nil {
			led.High()
			fmt.Println("sync failed: ", err.Error())
		} else {
			led.Low()
		}
		time.Sleep(pollInterval)
	}
}
