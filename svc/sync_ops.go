package svc

import (
	"rvcore/ksync"
	"rvcore/proc"
	"rvcore/sched"
)

func currentProc() *proc.ProcessControlBlock { return sched.Current().Process }

func sysMutexCreateImpl(blocking bool) int64 {
	p := currentProc()
	var id int
	p.With("sys_mutex_create", func() {
		var m ksync.Mutex
		if blocking {
			m = ksync.NewBlockingMutex()
		} else {
			m = ksync.NewSpinMutex()
		}
		id = p.Mutexes.Alloc(m)
	})
	return int64(id)
}

func sysMutexLockImpl(id int) int64 {
	p := currentProc()
	var m ksync.Mutex
	var ok bool
	p.With("sys_mutex_lock", func() {
		var v any
		v, ok = p.Mutexes.Get(id)
		if ok {
			m = v.(ksync.Mutex)
		}
	})
	if !ok {
		return -1
	}
	m.Lock() // must run after the borrow above is released: Lock may suspend.
	return 0
}

// sys_mutex_unlock releases the mutex; spec.md section 9 calls out a
// lock/unlock mixup as a near-certain typo in prior art and mandates
// the corrected behavior, which is what this implements.
func sysMutexUnlockImpl(id int) int64 {
	p := currentProc()
	var m ksync.Mutex
	var ok bool
	p.With("sys_mutex_unlock", func() {
		var v any
		v, ok = p.Mutexes.Get(id)
		if ok {
			m = v.(ksync.Mutex)
		}
	})
	if !ok {
		return -1
	}
	m.Unlock()
	return 0
}

func sysSemaphoreCreateImpl(initial int64) int64 {
	p := currentProc()
	var id int
	p.With("sys_semaphore_create", func() {
		id = p.Semaphores.Alloc(ksync.NewSemaphore(initial))
	})
	return int64(id)
}

func sysSemaphoreUpImpl(id int) int64 {
	s, ok := lookupSemaphore(id)
	if !ok {
		return -1
	}
	s.Up()
	return 0
}

func sysSemaphoreDownImpl(id int) int64 {
	s, ok := lookupSemaphore(id)
	if !ok {
		return -1
	}
	s.Down()
	return 0
}

func lookupSemaphore(id int) (*ksync.Semaphore, bool) {
	p := currentProc()
	var s *ksync.Semaphore
	var ok bool
	p.With("semaphore lookup", func() {
		var v any
		v, ok = p.Semaphores.Get(id)
		if ok {
			s = v.(*ksync.Semaphore)
		}
	})
	return s, ok
}

func sysCondvarCreateImpl() int64 {
	p := currentProc()
	var id int
	p.With("sys_condvar_create", func() {
		id = p.Condvars.Alloc(ksync.NewCondvar())
	})
	return int64(id)
}

func sysCondvarSignalImpl(id int) int64 {
	c, ok := lookupCondvar(id)
	if !ok {
		return -1
	}
	c.Signal()
	return 0
}

func sysCondvarWaitImpl(condID, mutexID int) int64 {
	c, ok := lookupCondvar(condID)
	if !ok {
		return -1
	}
	p := currentProc()
	var m ksync.Mutex
	p.With("sys_condvar_wait mutex lookup", func() {
		v, mok := p.Mutexes.Get(mutexID)
		if mok {
			m = v.(ksync.Mutex)
		}
		ok = mok
	})
	if !ok {
		return -1
	}
	c.Wait(m)
	return 0
}

func lookupCondvar(id int) (*ksync.Condvar, bool) {
	p := currentProc()
	var c *ksync.Condvar
	var ok bool
	p.With("condvar lookup", func() {
		var v any
		v, ok = p.Condvars.Get(id)
		if ok {
			c = v.(*ksync.Condvar)
		}
	})
	return c, ok
}
