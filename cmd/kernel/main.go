// Command kernel is the boot entry point: it replaces entry.S with a
// plain Go call sequence (spec.md section 2) that builds the frame
// allocator, the kernel address space, the first process, and then
// hands the hart over to the scheduler's idle loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"rvcore/apps"
	"rvcore/config"
	"rvcore/klog"
	"rvcore/mem"
	"rvcore/proc"
	"rvcore/sbi"
	"rvcore/sched"
	"rvcore/svc"
	"rvcore/timer"
	"rvcore/trap"
	"rvcore/vm"
)

// trapHandlerVA is the virtual address __alltraps jumps to once it has
// switched into kernel space (spec.md section 4.4). Real boot assembly
// would derive this from the linker script; the software model has no
// linker script, so it is a stable sentinel written into every thread's
// trap context for layout fidelity, never actually jumped through by the
// goroutine-based control flow.
const trapHandlerVA = 0x1000

// initAppName is looked up in the app registry for the first process,
// a hardcoded "initproc" bootstrap name.
const initAppName = "initproc"

func main() {
	opts := parseFlags()

	alloc := mem.NewAllocator(0, mem.PhysPageNum(opts.MemorySize/config.PageSize))
	ram := mem.NewPlatformRAM(opts.MemorySize)
	klog.Boot("frame allocator initialized", "frames", opts.MemorySize/config.PageSize)

	kernelFrame, ok := mem.Alloc(alloc, ram)
	if !ok {
		klog.Error("out of memory building the trampoline frame")
		os.Exit(1)
	}
	kernelSpace, err := vm.NewBare(alloc, ram, kernelFrame.PPN())
	if err != nil {
		klog.Error("building kernel address space", "err", err)
		os.Exit(1)
	}
	vm.NewKernel(kernelSpace, vm.VirtAddr(config.TrampolineVA), vm.KernelLayout{
		Ekernel:   vm.VirtAddr(0),
		MemoryEnd: vm.VirtAddr(opts.MemorySize),
	})
	klog.Boot("kernel address space built")

	proc.KernelSpace = kernelSpace
	proc.SetTrapHandlerVA(trapHandlerVA)
	svc.RAM = ram

	sched.Init()
	svc.Init()
	trap.SetNextTrigger = sbi.SetNextTrigger
	trap.CheckTimer = timer.CheckTimer
	sched.Shutdown = sbi.Shutdown
	klog.Boot("scheduler and syscall dispatch wired")

	registry := buildRegistry(opts)
	svc.Apps = registry

	if opts.ListApps {
		for _, name := range registry.List() {
			fmt.Println(name)
		}
		return
	}

	elfData, ok := registry.Lookup(initAppName)
	if !ok {
		klog.Error("no initproc app embedded; run cmd/mkapps to pack one", "want", initAppName)
		os.Exit(1)
	}
	initProc, err := proc.NewInitProcess(alloc, ram, config.TrampolineVA, elfData)
	if err != nil {
		klog.Error("building init process", "err", err)
		os.Exit(1)
	}
	sched.InitProc = initProc
	klog.Boot("init process admitted", "pid", initProc.Pid)

	stopClock := timer.StartWallClock()
	defer stopClock()
	sbi.SetNextTrigger()

	sched.RunTasks()
}

func parseFlags() config.Options {
	opts := config.DefaultOptions()
	flag.StringVar(&opts.ManifestPath, "manifest", opts.ManifestPath, "path to the app manifest YAML file")
	flag.BoolVar(&opts.ListApps, "list-apps", false, "list embedded app names and exit")
	flag.IntVar(&opts.TicksPerSec, "ticks-per-sec", opts.TicksPerSec, "scheduler tick rate (parsed but not applied: the timer runs at config.TicksPerSec)")
	flag.Uint64Var(&opts.MemorySize, "memory-size", opts.MemorySize, "simulated physical RAM size in bytes")
	flag.Parse()
	return opts
}

// buildRegistry loads the configured manifest and embeds the apps it
// names. A manifest that cannot be read, or that names apps never packed
// in by cmd/mkapps, is not fatal here -- it means this checkout has no
// embedded apps yet, which --list-apps (and an empty init lookup) report
// honestly rather than crashing the whole boot sequence.
func buildRegistry(opts config.Options) *apps.Registry {
	manifest, err := apps.LoadManifest(opts.ManifestPath)
	if err != nil {
		klog.Warn("could not read app manifest, continuing with no apps", "path", opts.ManifestPath, "err", err)
		manifest = &apps.Manifest{}
	}
	registry, err := apps.DefaultRegistry(manifest)
	if err != nil {
		klog.Warn("could not embed apps named in manifest, continuing with no apps", "err", err)
		registry, _ = apps.DefaultRegistry(&apps.Manifest{})
	}
	return registry
}
