// Package quota applies HDFS storage quotas to database warehouse
// directories. Quota changes go through the hdfs CLI rather than an RPC
// client; the cluster only exposes dfsadmin to superusers.
package quota
