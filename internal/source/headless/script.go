package headless

// The mutation counter lives in window.__sw_changes so that re-scoping the
// observer to a narrower element never loses already-observed progress.
const installObserverJS = `
(function(scope){
	if (!window.__sw_changes) { window.__sw_changes = 0; }
	function setup(target, name){
		try {
			if (window.__sw_obs) { try { window.__sw_obs.disconnect(); } catch (e) {} }
			var obs = new MutationObserver(function(){ window.__sw_changes++; });
			obs.observe(target, {subtree:true, childList:true, characterData:true, attributes:true});
			window.__sw_obs = obs;
			window.__sw_scope = name;
			return true;
		} catch (e) { return false; }
	}
	if (scope === 'contest') {
		var row = document.querySelector('tr[id^="contest_"]');
		if (row) {
			var target = row.closest('div.col-md-auto.p-0') || row.closest('div.card') || row.closest('table') || row.parentElement || row;
			setup(target, 'contest');
		} else {
			setup(document.body || document.documentElement, 'body');
		}
	} else {
		setup(document.body || document.documentElement, 'body');
	}
	return window.__sw_changes || 0;
})(%q)
`

// Narrows an observer that started on body down to the contest container once
// contest rows exist. Counter progress is preserved.
const rescopeObserverJS = `
(function(){
	var row = document.querySelector('tr[id^="contest_"]');
	if (row && window.__sw_scope !== 'contest') {
		if (window.__sw_obs) { try { window.__sw_obs.disconnect(); } catch (e) {} }
		var target = row.closest('div.col-md-auto.p-0') || row.closest('div.card') || row.closest('table') || row.parentElement || row;
		try {
			var obs = new MutationObserver(function(){ window.__sw_changes++; });
			obs.observe(target, {subtree:true, childList:true, characterData:true, attributes:true});
			window.__sw_obs = obs;
			window.__sw_scope = 'contest';
		} catch (e) {}
	}
	return window.__sw_scope || '';
})()
`

const readCounterJS = `window.__sw_changes || 0`
