package main

const helpText = `capslice - merge and time-slice tcpdump/libpcap capture files

Usage: capslice [options] [start-time [end-time]] input-file ...

A leading positional argument is treated as a time expression (see below)
if it parses as one; otherwise it and everything after it up to the first
flag-terminated argument are input files.

Time expressions:
  raw:        1690000000 or 1690000000.5
  structured: 2020y6m15d12h30m      (year/month/day/hour/minute/second/usec)
  relative:   +5m                   (a start-time is relative to the lowest
                                      first timestamp across inputs; an
                                      end-time is relative to the start-time)

Options:
  -w file   output file (- for stdout; refused if stdout is a terminal)
  -D        keep duplicate records instead of suppressing them
  -l        relative-time merge: window is clipped per-file against a
            common base instead of by absolute timestamp
  -d        print the resolved start/stop window and exit
  -R        report first/last timestamps in RAW style, one line per input
  -r        report first/last timestamps in READABLE style
  -t        report first/last timestamps in PARSEABLE style
  -e types  comma-separated session types for an external session tracker
  -f format output format for an external session tracker
  -v N      log per-record merge decisions when N > 0 (default 0)
`
