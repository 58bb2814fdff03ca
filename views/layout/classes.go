package layout

import (
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

const (
	buttonBase    = "inline-flex items-center rounded-md px-3 py-2 text-sm font-semibold shadow-sm"
	inputBase     = "block w-full rounded-md border border-gray-300 px-3 py-2 text-sm"
	toastBase     = "rounded-md px-4 py-3 text-sm shadow"
	statCardBase  = "rounded-lg bg-white p-5 shadow"
	navLinkBase   = "block rounded-md px-3 py-2 text-sm text-gray-300 hover:bg-gray-700"
	navLinkActive = "bg-gray-900 text-white"
)

// Button returns classes for a button variant, merged with extra overrides.
func Button(variant string, extra ...string) string {
	var v string
	switch variant {
	case "danger":
		v = "bg-red-600 text-white hover:bg-red-500"
	case "secondary":
		v = "bg-white text-gray-900 ring-1 ring-inset ring-gray-300 hover:bg-gray-50"
	case "link":
		v = "bg-transparent px-0 py-0 shadow-none text-indigo-600 hover:text-indigo-500"
	default:
		v = "bg-indigo-600 text-white hover:bg-indigo-500"
	}
	return twmerge.Merge(append([]string{buttonBase, v}, extra...)...)
}

// Input returns classes for a form control, red-bordered when invalid.
func Input(invalid bool) string {
	if invalid {
		return twmerge.Merge(inputBase, "border-red-500")
	}
	return inputBase
}

// Toast returns classes for a notice kind.
func Toast(kind string) string {
	switch kind {
	case "error":
		return twmerge.Merge(toastBase, "bg-red-50 text-red-800")
	case "success":
		return twmerge.Merge(toastBase, "bg-green-50 text-green-800")
	default:
		return twmerge.Merge(toastBase, "bg-blue-50 text-blue-800")
	}
}

func StatCard(failed bool) string {
	if failed {
		return twmerge.Merge(statCardBase, "bg-gray-50 text-gray-400")
	}
	return statCardBase
}

func NavLink(active bool) string {
	if active {
		return twmerge.Merge(navLinkBase, navLinkActive)
	}
	return navLinkBase
}
