package main

import "flag"

type options struct {
	cfgPath     string
	force       bool
	addGroup    int64
	removeGroup int64
	listGroups  bool
}

func (o *options) register() {
	flag.StringVar(&o.cfgPath, "config", "./tgpublish.yaml", "path to config file (yaml or json)")
	flag.BoolVar(&o.force, "force", false, "unattended continuous publishing (relaxed quota, minimal pacing)")
	flag.Int64Var(&o.addGroup, "add-group", 0, "add a group by chat id (name resolved via Telegram) and exit")
	flag.Int64Var(&o.removeGroup, "remove-group", 0, "remove a group by chat id and exit")
	flag.BoolVar(&o.listGroups, "list-groups", false, "print the configured groups and exit")
	flag.Parse()
}
