// Package discovery advertises and finds CBUS GridConnect bridges over
// mDNS/DNS-SD.
//
// # Service type (_cbus-gc._tcp)
//
// A command station advertises its GridConnect TCP port under this service
// type. Instance name format: CANCMD-<node number>.
// TXT records include: nn (node number), canid (CAN ID), cs (command station
// number), ver (firmware version major.minor.build) and optionally name.
//
// # Browsing
//
// Browse collects advertised bridges, merging addresses seen on several
// interfaces into one Service per instance.
package discovery
